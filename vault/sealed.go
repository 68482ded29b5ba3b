package vault

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	algorithmID           = "argon2id"
	sealedPrefix          = "v1."

	// KeyKDF holds the key-derivation parameters and salt of a sealed store.
	KeyKDF = "vault.kdf"
)

// ErrSealBroken is returned when a sealed value cannot be opened, usually because the
// passphrase changed or the value was tampered with.
var ErrSealBroken = errors.New("vault: sealed value cannot be opened")

// KDFConfig sets the Argon2id cost used to derive the sealing key.
type KDFConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
}

// DefaultKDFConfig returns interactive-strength parameters.
func DefaultKDFConfig() KDFConfig {
	return KDFConfig{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLength: 16}
}

// Sealed encrypts values with XChaCha20-Poly1305 before handing them to the inner
// Storage. The storage key is bound as additional data, so a value copied under another
// key fails to open.
type Sealed struct {
	inner Storage
	aead  cipher.AEAD
}

// NewSealed derives the sealing key from passphrase. The first call on a fresh inner
// store generates a salt and records it with the cost parameters under KeyKDF; later
// calls reuse the recorded parameters.
func NewSealed(ctx context.Context, inner Storage, passphrase string, cfg KDFConfig) (*Sealed, error) {
	if inner == nil {
		return nil, errors.New("vault: sealed store requires an inner storage")
	}
	if passphrase == "" {
		return nil, errors.New("vault: sealed store requires a passphrase")
	}

	params, err := loadOrCreateParams(ctx, inner, cfg)
	if err != nil {
		return nil, err
	}
	key := argon2.IDKey(
		[]byte(passphrase),
		params.salt,
		params.time,
		params.memory,
		params.parallelism,
		chacha20poly1305.KeySize,
	)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	return &Sealed{inner: inner, aead: aead}, nil
}

// Get implements Storage.
func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	if err := s.checkKey(ctx, key); err != nil {
		return "", err
	}
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return s.open(key, sealed)
}

// Set implements Storage.
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	if err := s.checkKey(ctx, key); err != nil {
		return err
	}
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

// Delete implements Storage.
func (s *Sealed) Delete(ctx context.Context, key string) error {
	if err := s.checkKey(ctx, key); err != nil {
		return err
	}
	return s.inner.Delete(ctx, key)
}

func (s *Sealed) checkKey(ctx context.Context, key string) error {
	if key == KeyKDF {
		return ErrInvalidKey
	}
	return checkKey(ctx, key)
}

func (s *Sealed) seal(key, value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

func (s *Sealed) open(key, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return "", ErrSealBroken
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil || len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrSealBroken
	}
	nonce, ct := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return "", ErrSealBroken
	}
	return string(plain), nil
}

type kdfParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
}

func loadOrCreateParams(ctx context.Context, inner Storage, cfg KDFConfig) (*kdfParams, error) {
	encoded, err := inner.Get(ctx, KeyKDF)
	if err == nil {
		return parseKDF(encoded)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := validateKDFConfig(cfg); err != nil {
		return nil, err
	}
	salt := make([]byte, cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("vault: salt: %w", err)
	}
	params := &kdfParams{
		memory:      cfg.Memory,
		time:        cfg.Time,
		parallelism: cfg.Parallelism,
		salt:        salt,
	}
	if err := inner.Set(ctx, KeyKDF, params.encode()); err != nil {
		return nil, err
	}
	return params, nil
}

// encode renders the parameters as "$argon2id$v=19$m=..,t=..,p=..$<salt>".
func (p *kdfParams) encode() string {
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s",
		algorithmID,
		argon2.Version,
		p.memory,
		p.time,
		p.parallelism,
		base64.StdEncoding.EncodeToString(p.salt),
	)
}

func parseKDF(encoded string) (*kdfParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" {
		return nil, errors.New("vault: invalid kdf record")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("vault: unsupported kdf algorithm")
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, errors.New("vault: unsupported argon2 version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}
	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("vault: invalid salt encoding")
	}
	if len(salt) < int(minSaltLength) {
		return nil, errors.New("vault: invalid salt length")
	}
	params.salt = salt
	return params, nil
}

func parseParams(part string) (*kdfParams, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, errors.New("vault: invalid parameter format")
	}

	var (
		memorySet, timeSet, parallelismSet bool
		params                             kdfParams
	)
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("vault: invalid parameter entry")
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, errors.New("vault: invalid memory parameter")
			}
			params.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return nil, errors.New("vault: invalid time parameter")
			}
			params.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, errors.New("vault: invalid parallelism parameter")
			}
			params.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, errors.New("vault: unsupported parameter")
		}
	}
	if !memorySet || !timeSet || !parallelismSet {
		return nil, errors.New("vault: missing parameters")
	}
	return &params, nil
}

func validateKDFConfig(cfg KDFConfig) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("vault: kdf memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("vault: kdf time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("vault: kdf parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("vault: kdf salt length must be >= 16")
	}
	return nil
}
