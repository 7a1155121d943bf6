package conf

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/satlayer/satlayer-restaking/library/types"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "RESTAKING_CONFIG"

type Config struct {
	LogLevel string        `mapstructure:"log_level" toml:"log_level"`
	Genesis  string        `mapstructure:"genesis" toml:"genesis"`
	Chain    ChainConfig   `mapstructure:"chain" toml:"chain"`
	Store    StoreConfig   `mapstructure:"store" toml:"store"`
	API      APIConfig     `mapstructure:"api" toml:"api"`
	Metrics  MetricsConfig `mapstructure:"metrics" toml:"metrics"`
	Kafka    KafkaConfig   `mapstructure:"kafka" toml:"kafka"`
	Logging  LoggingConfig `mapstructure:"logging" toml:"logging"`
}

type ChainConfig struct {
	Bech32Prefix string `mapstructure:"bech32_prefix" toml:"bech32_prefix"`
}

type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend       string `mapstructure:"backend" toml:"backend"`
	RedisAddr     string `mapstructure:"redis_addr" toml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" toml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" toml:"redis_db"`
	Namespace     string `mapstructure:"namespace" toml:"namespace"`
}

type APIConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

type MetricsConfig struct {
	// empty disables the metrics server
	Addr string `mapstructure:"addr" toml:"addr"`
}

type KafkaConfig struct {
	// empty disables event publishing
	Brokers []string `mapstructure:"brokers" toml:"brokers"`
	Topic   string   `mapstructure:"topic" toml:"topic"`
	GroupID string   `mapstructure:"group_id" toml:"group_id"`
}

type LoggingConfig struct {
	Format   string `mapstructure:"format" toml:"format"`
	Logstash string `mapstructure:"logstash" toml:"logstash"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Chain:    ChainConfig{Bech32Prefix: "bbn"},
		Store: StoreConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			Namespace: "restaking",
		},
		API:     APIConfig{Addr: "127.0.0.1:8080"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9090"},
		Kafka:   KafkaConfig{Topic: "restaking-events", GroupID: "restaking"},
		Logging: LoggingConfig{Format: "text"},
	}
}

// DefaultPath is ~/.config/restaking/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "restaking", "config.toml"), nil
}

// Path resolves the config file: explicit path, then $RESTAKING_CONFIG, then
// the default location.
func Path(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	return DefaultPath()
}

// Load reads the TOML file at path over the defaults. A missing file yields
// the defaults. RESTAKING_* environment variables override file values, with
// "." in keys written as "_" (RESTAKING_STORE_BACKEND).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	defaults := Default()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(defaults); err != nil {
		return Config{}, err
	}
	if err := v.ReadConfig(&buf); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix("RESTAKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return Config{}, errorsmod.Wrapf(types.ErrInvalidInput, "config file %s: %v", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errorsmod.Wrapf(types.ErrInvalidInput, "config file invalid: %v", err)
	}
	if cfg.Genesis != "" && path != "" && !filepath.IsAbs(cfg.Genesis) {
		cfg.Genesis = filepath.Join(filepath.Dir(path), cfg.Genesis)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return errorsmod.Wrapf(types.ErrInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Chain.Bech32Prefix == "" {
		return errorsmod.Wrap(types.ErrInvalidInput, "chain.bech32_prefix is empty")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errorsmod.Wrap(types.ErrInvalidInput, "kafka.topic is empty")
	}
	return nil
}

// WriteDefault writes the default config to path unless a file is already
// there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	file, err := os.Create(path)
	if err != nil {
		return false, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(Default()); err != nil {
		return false, err
	}
	return true, nil
}

func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
