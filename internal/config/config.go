package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	StaticDir         string        `mapstructure:"static_dir" yaml:"static_dir"`

	// Slot allocation engine.
	MaxOutside    int           `mapstructure:"max_outside" yaml:"max_outside"`
	ClaimTimeout  time.Duration `mapstructure:"claim_timeout" yaml:"claim_timeout"`
	MaxNameLength int           `mapstructure:"max_name_length" yaml:"max_name_length"`

	// Per-connection inbound message limiter.
	WSMsgRate  float64 `mapstructure:"ws_msg_rate" yaml:"ws_msg_rate"`
	WSMsgBurst int     `mapstructure:"ws_msg_burst" yaml:"ws_msg_burst"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxOutside:        4,
		ClaimTimeout:      2 * time.Minute,
		MaxNameLength:     30,
		WSMsgRate:         10,
		WSMsgBurst:        20,
	}
}
