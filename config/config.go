package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RelayConfig configures the forwarding relay server.
type RelayConfig struct {
	ListenAddr     string
	UpstreamURL    string
	AllowedOrigins []string
}

// Config holds the application configuration.
type Config struct {
	RPCURL       string
	ChainID      int64
	PrivateKey   string
	APIBaseURL   string
	CurveAddress string
	LensAddress  string
	StorageDir   string
	HTTPTimeout  time.Duration
	DryRun       bool
	Relay        RelayConfig
}

// Load reads configuration from environment variables and an optional
// .mon-launch.yaml config file.
func Load() (*Config, error) {
	viper.SetConfigName(".mon-launch")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("api_base_url", "https://api.nadfun.io")
	viper.SetDefault("chain_id", 10143)
	viper.SetDefault("http_timeout", "60s")
	viper.SetDefault("relay.listen_addr", ":8787")

	viper.SetEnvPrefix("MON_LAUNCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file is optional
	_ = viper.ReadInConfig()

	return &Config{
		RPCURL:       viper.GetString("rpc_url"),
		ChainID:      viper.GetInt64("chain_id"),
		PrivateKey:   viper.GetString("private_key"),
		APIBaseURL:   viper.GetString("api_base_url"),
		CurveAddress: viper.GetString("curve_address"),
		LensAddress:  viper.GetString("lens_address"),
		StorageDir:   viper.GetString("storage_dir"),
		HTTPTimeout:  viper.GetDuration("http_timeout"),
		DryRun:       viper.GetBool("dry_run"),
		Relay: RelayConfig{
			ListenAddr:     viper.GetString("relay.listen_addr"),
			UpstreamURL:    viper.GetString("relay.upstream_url"),
			AllowedOrigins: splitOrigins(viper.GetString("relay.allowed_origins")),
		},
	}, nil
}

// ValidateLaunch checks the fields the launch pipeline requires. The relay
// command has its own, smaller requirements.
func (c *Config) ValidateLaunch() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL not configured. Set MON_LAUNCH_RPC_URL or rpc_url in .mon-launch.yaml")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key not configured. Set MON_LAUNCH_PRIVATE_KEY or private_key in .mon-launch.yaml")
	}
	if c.CurveAddress == "" {
		return fmt.Errorf("curve contract address not configured")
	}
	if c.LensAddress == "" {
		return fmt.Errorf("lens contract address not configured")
	}
	return nil
}

// ValidateRelay checks the fields the relay server requires.
func (c *Config) ValidateRelay() error {
	if c.Relay.UpstreamURL == "" {
		return fmt.Errorf("relay upstream URL not configured. Set MON_LAUNCH_RELAY_UPSTREAM_URL or relay.upstream_url in .mon-launch.yaml")
	}
	return nil
}

// splitOrigins parses the comma-separated CORS allow-list.
func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
