package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	goCampus "github.com/MrEthical07/goCampus"
	"github.com/MrEthical07/goCampus/vault"
)

// EnvPrefix prefixes every environment variable, e.g. CAMPUS_API_BASE_URL.
const EnvPrefix = "CAMPUS"

// Settings is the full external configuration.
type Settings struct {
	API     APISettings     `mapstructure:"api"`
	Storage StorageSettings `mapstructure:"storage"`
	Log     LogSettings     `mapstructure:"log"`
	Mock    MockSettings    `mapstructure:"mock"`
}

type APISettings struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Retries   int           `mapstructure:"retries" validate:"gte=0,lte=10"`
	RetryWait time.Duration `mapstructure:"retry_wait" validate:"gte=0"`
	UserAgent string        `mapstructure:"user_agent"`
	Debug     bool          `mapstructure:"debug"`
}

type StorageSettings struct {
	Platform   string `mapstructure:"platform" validate:"oneof=memory web native redis"`
	Path       string `mapstructure:"path"`
	Passphrase string `mapstructure:"passphrase"`

	RedisAddr      string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db" validate:"gte=0"`
	RedisNamespace string        `mapstructure:"redis_namespace"`
	RedisTTL       time.Duration `mapstructure:"redis_ttl" validate:"gte=0"`
}

type LogSettings struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `mapstructure:"json"`
}

// MockSettings configures cmd/campus-mockapi.
type MockSettings struct {
	Addr     string        `mapstructure:"addr" validate:"required"`
	Signing  string        `mapstructure:"signing" validate:"oneof=hs256 ed25519"`
	Secret   string        `mapstructure:"secret" validate:"omitempty,min=32"`
	KeyFile  string        `mapstructure:"key_file" validate:"omitempty,file"`
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

// Options locate the optional sources.
type Options struct {
	// ConfigFile is a YAML, TOML or JSON file. Empty means none.
	ConfigFile string
	// EnvFile is a dotenv file. A missing file is ignored.
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.retries", 2)
	v.SetDefault("api.retry_wait", 200*time.Millisecond)
	v.SetDefault("api.user_agent", "campusctl")
	v.SetDefault("api.debug", false)

	v.SetDefault("storage.platform", "web")
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.passphrase", "")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_namespace", "")
	v.SetDefault("storage.redis_ttl", time.Duration(0))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("mock.addr", ":3000")
	v.SetDefault("mock.signing", "hs256")
	v.SetDefault("mock.secret", "")
	v.SetDefault("mock.key_file", "")
	v.SetDefault("mock.token_ttl", 12*time.Hour)
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".campus/session.json"
	}
	return dir + "/campus/session.json"
}

// Load reads settings from every source and validates them.
func Load(opts Options) (*Settings, error) {
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := godotenv.Load(opts.EnvFile); err != nil {
				return nil, fmt.Errorf("settings: load %s: %w", opts.EnvFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("settings: stat %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("settings: read %s: %w", opts.ConfigFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("settings: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(storageRules, StorageSettings{})
	return v
}

func storageRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(StorageSettings)
	switch s.Platform {
	case "web", "native":
		if s.Path == "" {
			sl.ReportError(s.Path, "Path", "path", "required_for_file_platform", s.Platform)
		}
		if s.Platform == "native" && s.Passphrase == "" {
			sl.ReportError(s.Passphrase, "Passphrase", "passphrase", "required_for_native", "")
		}
	case "redis":
		if s.RedisAddr == "" {
			sl.ReportError(s.RedisAddr, "RedisAddr", "redis_addr", "required_for_redis", "")
		}
	}
}

// Validate checks field constraints and reports every violation.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("settings: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("settings: invalid configuration: %s", strings.Join(msgs, "; "))
}

// Engine converts the settings into an engine configuration.
func (s *Settings) Engine() goCampus.Config {
	cfg := goCampus.DefaultConfig()
	cfg.API = goCampus.APIConfig{
		BaseURL:    s.API.BaseURL,
		Timeout:    s.API.Timeout,
		RetryCount: s.API.Retries,
		RetryWait:  s.API.RetryWait,
		UserAgent:  s.API.UserAgent,
		Debug:      s.API.Debug,
	}
	cfg.Storage = goCampus.StorageConfig{
		Platform:       s.Storage.Platform,
		Path:           s.Storage.Path,
		Passphrase:     s.Storage.Passphrase,
		RedisAddr:      s.Storage.RedisAddr,
		RedisPassword:  s.Storage.RedisPassword,
		RedisDB:        s.Storage.RedisDB,
		RedisPrefix:    cfg.Storage.RedisPrefix,
		RedisNamespace: s.Storage.RedisNamespace,
		RedisTTL:       s.Storage.RedisTTL,
	}
	cfg.Log = goCampus.LogConfig{Level: s.Log.Level, JSON: s.Log.JSON}
	return cfg
}

// Vault converts the storage section for callers that open storage themselves.
func (s *Settings) Vault() vault.Config {
	return vault.Config{
		Platform:       vault.Platform(s.Storage.Platform),
		Path:           s.Storage.Path,
		Passphrase:     s.Storage.Passphrase,
		KDF:            vault.DefaultKDFConfig(),
		RedisAddr:      s.Storage.RedisAddr,
		RedisPassword:  s.Storage.RedisPassword,
		RedisDB:        s.Storage.RedisDB,
		RedisPrefix:    goCampus.DefaultConfig().Storage.RedisPrefix,
		RedisNamespace: s.Storage.RedisNamespace,
		RedisTTL:       s.Storage.RedisTTL,
	}
}
