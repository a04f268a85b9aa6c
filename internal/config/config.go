// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Content  ContentConfig  `mapstructure:"content"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"required,gt=0"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host" validate:"required"`
	Port            int               `mapstructure:"port" validate:"required,gt=0"`
	Username        string            `mapstructure:"username" validate:"required"`
	Password        string            `mapstructure:"password"`
	Database        string            `mapstructure:"database" validate:"required"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime"`
}

type ContentConfig struct {
	// BlockTemplatesPath overrides the embedded block templates when set.
	BlockTemplatesPath string `mapstructure:"block_templates_path"`
	// AuthorLabel is stamped into the author field of saved entities.
	AuthorLabel string `mapstructure:"author_label"`
	// AdminEnabled opens the /admin routes. Deployments that front the
	// backend with their own authorization leave this on.
	AdminEnabled bool `mapstructure:"admin_enabled"`
}

// Load reads the configuration file, applies defaults and environment
// bindings, and validates the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/azmath")
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "azmath")
	v.SetDefault("database.database", "azmath")
	v.SetDefault("content.author_label", "admin")
	v.SetDefault("content.admin_enabled", true)

	// Credentials come from the environment only, never the config file
	if err := v.BindEnv("database.username", "AZMATH_DB_USERNAME"); err != nil {
		return nil, fmt.Errorf("failed to bind AZMATH_DB_USERNAME environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "AZMATH_DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind AZMATH_DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	validator, trans, err := newValidator()
	if err != nil {
		return fmt.Errorf("newValidator() > %w", err)
	}
	if err := validator.Struct(cfg); err != nil {
		var messages []string
		for _, msg := range translateErrors(err, trans) {
			messages = append(messages, msg)
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
	}
	return nil
}
