package config

import (
	"fmt"
	"net"
	"strings"

	"tipfinity/storage"
)

// Validate checks bounds the node relies on at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" && !strings.EqualFold(c.Storage.Backend, storage.BackendMemory) {
		return fmt.Errorf("config: DataDir must be set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case storage.BackendLevelDB, storage.BackendBolt, storage.BackendMemory:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("config: log rotation limits must not be negative")
	}
	if c.RPC.RequestsPerMinute < 0 {
		return fmt.Errorf("config: RPC.RequestsPerMinute must not be negative")
	}
	if c.RPC.RequestsPerMinute > 0 && c.RPC.Burst <= 0 {
		return fmt.Errorf("config: RPC.Burst must be positive when rate limiting is enabled")
	}
	if c.RPC.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: RPC.MaxBodyBytes must be positive")
	}
	for _, proxy := range c.RPC.TrustedProxies {
		if net.ParseIP(strings.TrimSpace(proxy)) == nil {
			return fmt.Errorf("config: RPC.TrustedProxies entry %q is not an IP address", proxy)
		}
	}
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("config: Telemetry.Endpoint required when telemetry is enabled")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("config: Telemetry.SampleRatio must be within [0,1]")
	}
	return nil
}
