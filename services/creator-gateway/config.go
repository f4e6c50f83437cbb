package creatorgateway

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	envDatabaseURL = "CREATOR_GATEWAY_DATABASE_URL"
	envJWTSecret   = "CREATOR_GATEWAY_JWT_SECRET"
	envListen      = "CREATOR_GATEWAY_LISTEN"
)

// Config captures the runtime settings for the creator gateway.
type Config struct {
	ListenAddress string         `yaml:"listen"`
	Database      DatabaseConfig `yaml:"database"`
	Session       SessionConfig  `yaml:"session"`
	Price         PriceConfig    `yaml:"price"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SessionConfig controls the HS256 tokens handed out on wallet link.
type SessionConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"`
}

// PriceConfig points the native-asset quote at a CoinGecko-compatible
// simple/price endpoint.
type PriceConfig struct {
	Endpoint string        `yaml:"endpoint"`
	AssetID  string        `yaml:"asset_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

func defaultConfig() Config {
	return Config{
		ListenAddress: ":8090",
		Database:      DatabaseConfig{Driver: DriverSQLite, DSN: "creator-gateway.db"},
		Session:       SessionConfig{Issuer: "creator-gateway", TTL: 24 * time.Hour},
		Price:         PriceConfig{Endpoint: defaultPriceEndpoint, AssetID: "solana", Timeout: 5 * time.Second},
	}
}

// LoadConfig reads the YAML configuration at path, applies environment
// overrides and validates the result. An empty path uses defaults.
func LoadConfig(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.applyEnv(lookup)
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(envDatabaseURL); ok && strings.TrimSpace(v) != "" {
		cfg.Database.DSN = strings.TrimSpace(v)
		if strings.HasPrefix(cfg.Database.DSN, "postgres://") || strings.HasPrefix(cfg.Database.DSN, "postgresql://") {
			cfg.Database.Driver = DriverPostgres
		}
	}
	if v, ok := lookup(envJWTSecret); ok && strings.TrimSpace(v) != "" {
		cfg.Session.Secret = strings.TrimSpace(v)
	}
	if v, ok := lookup(envListen); ok && strings.TrimSpace(v) != "" {
		cfg.ListenAddress = strings.TrimSpace(v)
	}
}

func (cfg *Config) normalize() {
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Database.DSN = strings.TrimSpace(cfg.Database.DSN)
	cfg.Price.Endpoint = strings.TrimSpace(cfg.Price.Endpoint)
	cfg.Price.AssetID = strings.TrimSpace(cfg.Price.AssetID)
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Price.Timeout <= 0 {
		cfg.Price.Timeout = 5 * time.Second
	}
}

func (cfg *Config) validate() error {
	if cfg.ListenAddress == "" {
		return fmt.Errorf("listen address required")
	}
	switch cfg.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database: unsupported driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database: dsn required")
	}
	if len(cfg.Session.Secret) < 32 {
		return fmt.Errorf("session: secret must be at least 32 bytes (set %s)", envJWTSecret)
	}
	if cfg.Price.AssetID == "" {
		return fmt.Errorf("price: asset_id required")
	}
	return nil
}
