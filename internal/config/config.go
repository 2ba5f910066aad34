package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FUNNEL_"

// Config is the process configuration shared by every command.
type Config struct {
	ListenAddr    string         `yaml:"listen_addr"`
	LogLevel      string         `yaml:"log_level"`
	Redis         RedisConfig    `yaml:"redis"`
	DatabaseURL   string         `yaml:"database_url"`
	API           APIConfig      `yaml:"api"`
	LocalStore    string         `yaml:"local_store"`
	SessionDir    string         `yaml:"session_dir"`
	GenAI         GenAIConfig    `yaml:"genai"`
	Kafka         KafkaConfig    `yaml:"kafka"`
	Security      SecurityConfig `yaml:"security"`
	SubmitTimeout time.Duration  `yaml:"submit_timeout"`
	ShareBaseURL  string         `yaml:"share_base_url"`
}

// RedisConfig selects the Redis session store and lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// APIConfig points at a remote persistence service.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// GenAIConfig configures funnel generation and answer analysis.
type GenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// KafkaConfig configures the submission topic.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// SecurityConfig configures at-rest protection of saved sessions.
type SecurityConfig struct {
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are previous keys, tried when decryption with the active key fails.
	FallbackKeys []string `yaml:"fallback_keys"`
	// PIIPatterns mask matching question ids and contact fields before saving.
	PIIPatterns []string `yaml:"pii_patterns"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		LogLevel:      "info",
		Redis:         RedisConfig{Prefix: "funnel:"},
		LocalStore:    ".funnel/funnel.db",
		Kafka:         KafkaConfig{Topic: "funnel.submissions", GroupID: "funnel-analysis"},
		API:           APIConfig{Timeout: 10 * time.Second},
		SubmitTimeout: 10 * time.Second,
	}
}

// Load builds the configuration: defaults, then the YAML file at path (optional,
// a missing file is ignored unless explicit is set), then FUNNEL_* variables.
// A .env file in the working directory is loaded into the environment first.
func Load(path string, explicit bool) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = splitList(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	str("REDIS_PREFIX", &c.Redis.Prefix)
	dur("REDIS_TTL", &c.Redis.TTL)
	str("DATABASE_URL", &c.DatabaseURL)
	str("API_BASE_URL", &c.API.BaseURL)
	dur("API_TIMEOUT", &c.API.Timeout)
	str("LOCAL_STORE", &c.LocalStore)
	str("SESSION_DIR", &c.SessionDir)
	str("GENAI_API_KEY", &c.GenAI.APIKey)
	str("GENAI_MODEL", &c.GenAI.Model)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("KAFKA_GROUP_ID", &c.Kafka.GroupID)
	str("ENCRYPTION_KEY", &c.Security.EncryptionKey)
	list("ENCRYPTION_FALLBACK_KEYS", &c.Security.FallbackKeys)
	list("PII_PATTERNS", &c.Security.PIIPatterns)
	dur("SUBMIT_TIMEOUT", &c.SubmitTimeout)
	str("SHARE_BASE_URL", &c.ShareBaseURL)

	return errors.Join(errs...)
}

// EncryptionKeys decodes the active and fallback keys. A nil active key means encryption is off.
func (s SecurityConfig) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
