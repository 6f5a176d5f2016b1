package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	MediaDir          string        `mapstructure:"media_dir" yaml:"media_dir"`
	MediaBaseURL      string        `mapstructure:"media_base_url" yaml:"media_base_url"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "messenger.db",
		MediaDir:          "media/messages",
		MediaBaseURL:      "/media/messages",
		JWTSecret:         "dev-secret-change-me",
		JWTIssuer:         "messenger-server",
		JWTAudience:       "messenger-client",
		LogLevel:          "info",
	}
}
