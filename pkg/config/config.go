package config

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Inmet  InmetConfig  `mapstructure:"inmet"`
	Feed   FeedConfig   `mapstructure:"feed"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	AllowedOrigins  string `mapstructure:"allowedOrigins"`
	ShutdownTimeout int    `mapstructure:"shutdownTimeout"`
}

// InmetConfig holds the INMET API client configuration
type InmetConfig struct {
	BaseURL        string `mapstructure:"baseURL"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

// FeedConfig holds the monitored location and polling configuration.
// HomeLatitude/HomeLongitude are the reference point for the distance
// attribute of alert entities.
type FeedConfig struct {
	Geocode             string  `mapstructure:"geocode"`
	ScanIntervalMinutes int     `mapstructure:"scanIntervalMinutes"`
	HomeLatitude        float64 `mapstructure:"homeLatitude"`
	HomeLongitude       float64 `mapstructure:"homeLongitude"`
}

// LoadConfig loads the application configuration from file or environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// Set default values
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.allowedOrigins", "*")
	viper.SetDefault("server.shutdownTimeout", 10)
	viper.SetDefault("inmet.baseURL", "https://apiprevmet3.inmet.gov.br")
	viper.SetDefault("inmet.timeoutSeconds", 20)
	viper.SetDefault("feed.geocode", "3509502") // Campinas
	viper.SetDefault("feed.scanIntervalMinutes", 30)

	// Allow environment variables to override config file
	viper.SetEnvPrefix("INMET_ALERT")
	viper.AutomaticEnv()

	// If config file is provided, read it
	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Warnf("Error reading config file: %v", err)
		}
	}

	// Unmarshal config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
