package goCampus

import (
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goCampus/navigation"
	"github.com/MrEthical07/goCampus/role"
	"github.com/MrEthical07/goCampus/vault"
)

func validConfig() Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = "http://localhost:3000"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with base url",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name:      "missing base url",
			mutate:    func(c *Config) { c.API.BaseURL = "  " },
			wantValid: false,
		},
		{
			name:      "negative timeout",
			mutate:    func(c *Config) { c.API.Timeout = -time.Second },
			wantValid: false,
		},
		{
			name:      "negative retries",
			mutate:    func(c *Config) { c.API.RetryCount = -1 },
			wantValid: false,
		},
		{
			name: "web storage needs path",
			mutate: func(c *Config) {
				c.Storage.Platform = string(vault.PlatformWeb)
			},
			wantValid: false,
		},
		{
			name: "web storage with path",
			mutate: func(c *Config) {
				c.Storage.Platform = string(vault.PlatformWeb)
				c.Storage.Path = "/tmp/campus.json"
			},
			wantValid: true,
		},
		{
			name: "native storage needs passphrase",
			mutate: func(c *Config) {
				c.Storage.Platform = string(vault.PlatformNative)
				c.Storage.Path = "/tmp/campus.json"
			},
			wantValid: false,
		},
		{
			name: "redis storage needs address",
			mutate: func(c *Config) {
				c.Storage.Platform = string(vault.PlatformRedis)
			},
			wantValid: false,
		},
		{
			name: "unknown platform",
			mutate: func(c *Config) {
				c.Storage.Platform = "sqlite"
			},
			wantValid: false,
		},
		{
			name: "home inside the auth group",
			mutate: func(c *Config) {
				c.Routes.Teacher = "/auth/teacher"
			},
			wantValid: false,
		},
		{
			name:      "missing home",
			mutate:    func(c *Config) { c.Routes.Student = "" },
			wantValid: false,
		},
		{
			name: "events enabled without buffer",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Log.Level = "trace" },
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRoutesConfigDerivesGroups(t *testing.T) {
	cfg := defaultConfig()
	routes, err := cfg.Routes.navigationRoutes()
	if err != nil {
		t.Fatalf("navigationRoutes: %v", err)
	}
	if routes.AuthGroup != navigation.GroupAuth {
		t.Fatalf("auth group = %q", routes.AuthGroup)
	}

	want := navigation.DefaultRoutes()
	for _, kind := range []role.Kind{role.Dean, role.ViceDean, role.Teacher, role.Student} {
		got, _ := routes.For(kind)
		exp, _ := want.For(kind)
		if got != exp {
			t.Fatalf("%s: got %+v, want %+v", kind, got, exp)
		}
	}
}

func TestStorageConfigVaultConfig(t *testing.T) {
	cfg := StorageConfig{
		Platform:       "redis",
		RedisAddr:      "127.0.0.1:6379",
		RedisNamespace: "kiosk-1",
		RedisTTL:       time.Hour,
	}
	vc := cfg.vaultConfig()
	if vc.Platform != vault.PlatformRedis || vc.RedisNamespace != "kiosk-1" || vc.RedisTTL != time.Hour {
		t.Fatalf("unexpected vault config %+v", vc)
	}
	if vc.KDF != vault.DefaultKDFConfig() {
		t.Fatal("expected default KDF parameters")
	}
}

func TestValidateErrorNamesField(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Platform = string(vault.PlatformRedis)
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "RedisAddr") {
		t.Fatalf("expected RedisAddr error, got %v", err)
	}
}
