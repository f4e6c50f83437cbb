package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tipfinity/storage"
)

const (
	// EnvEnvironment names the deployment environment attached to logs.
	EnvEnvironment = "TIP_ENV"
	// EnvRPCToken overrides RPC.AuthToken without writing it to disk.
	EnvRPCToken = "TIP_RPC_TOKEN"
)

type Config struct {
	RPCAddress  string    `toml:"RPCAddress"`
	DataDir     string    `toml:"DataDir"`
	GenesisFile string    `toml:"GenesisFile"`
	ChainID     uint64    `toml:"ChainID"`
	Environment string    `toml:"Environment"`
	Storage     Storage   `toml:"Storage"`
	Log         Log       `toml:"Log"`
	RPC         RPC       `toml:"RPC"`
	Telemetry   Telemetry `toml:"Telemetry"`
}

// Default returns the configuration written when no file exists.
func Default() *Config {
	return &Config{
		RPCAddress:  "127.0.0.1:8545",
		DataDir:     "./tip-data",
		GenesisFile: "",
		Environment: "local",
		Storage:     Storage{Backend: storage.BackendLevelDB},
		Log:         Log{Level: "info", MaxSizeMB: 100, MaxBackups: 5},
		RPC: RPC{
			RequestsPerMinute: 600,
			Burst:             60,
			MaxBodyBytes:      1 << 20,
			ReadTimeoutSecs:   15,
			WriteTimeoutSecs:  15,
		},
		Telemetry: Telemetry{Endpoint: "localhost:4318"},
	}
}

// Load loads the configuration from the given path. A missing file is
// created with defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := createDefault(path)
		if err != nil {
			return nil, err
		}
		cfg.applyEnv()
		return cfg, nil
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		cfg.Storage.Backend = storage.BackendLevelDB
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if env := strings.TrimSpace(os.Getenv(EnvEnvironment)); env != "" {
		c.Environment = env
	}
	if token := strings.TrimSpace(os.Getenv(EnvRPCToken)); token != "" {
		c.RPC.AuthToken = token
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// StoragePath returns where the configured backend keeps its files.
func (c *Config) StoragePath() string {
	switch strings.ToLower(c.Storage.Backend) {
	case storage.BackendBolt:
		return filepath.Join(c.DataDir, "state.bolt")
	default:
		return filepath.Join(c.DataDir, "state")
	}
}
