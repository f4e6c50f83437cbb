package config

// Storage selects the key-value backend holding ledger state.
type Storage struct {
	Backend string `toml:"Backend"`
}

// Log controls optional rotated file output next to stdout.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
}

// RPC bounds the JSON-RPC surface.
type RPC struct {
	AuthToken         string  `toml:"AuthToken"`
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
	MaxBodyBytes      int64   `toml:"MaxBodyBytes"`
	ReadTimeoutSecs   int     `toml:"ReadTimeoutSecs"`
	WriteTimeoutSecs  int     `toml:"WriteTimeoutSecs"`
	// TrustedProxies lists reverse proxy addresses allowed to set
	// X-Forwarded-For.
	TrustedProxies []string `toml:"TrustedProxies"`
}

// Telemetry configures OTLP export.
type Telemetry struct {
	Enabled  bool   `toml:"Enabled"`
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	// SampleRatio keeps this fraction of root spans; 0 keeps all.
	SampleRatio float64 `toml:"SampleRatio"`
}
