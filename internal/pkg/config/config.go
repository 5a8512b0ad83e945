package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Store        StoreConfig        `mapstructure:"store"`
	Data         DataConfig         `mapstructure:"data"`
	Rating       RatingConfig       `mapstructure:"rating"`
	Session      SessionConfig      `mapstructure:"session"`
	RedisService RedisServiceConfig `mapstructure:"redis_service"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type DataConfig struct {
	CollectionsDir  string `mapstructure:"collections_dir"`
	AssignmentsFile string `mapstructure:"assignments_file"`
	UsersFile       string `mapstructure:"users_file"`
}

type RatingConfig struct {
	// ReratePolicy is "update" (overwrite the prior event for the pair) or
	// "strict" (reject re-rating with a warning).
	ReratePolicy string `mapstructure:"rerate_policy"`
}

type SessionConfig struct {
	FenceTTLMinutes int `mapstructure:"fence_ttl_minutes"`
}

type RedisServiceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DB      int    `mapstructure:"db"`
}

type JWTConfig struct {
	SecretKey   string `mapstructure:"secret_key"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var cfg *Config

// Load loads the configuration from the given yaml file. A .env file, when
// present, is applied first so MR_* environment variables can override any
// key.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.database_path", "./data/metarate.db")
	v.SetDefault("data.collections_dir", "./data/collections")
	v.SetDefault("data.assignments_file", "./data/assignments.json")
	v.SetDefault("data.users_file", "./data/users.yaml")
	v.SetDefault("rating.rerate_policy", "update")
	v.SetDefault("session.fence_ttl_minutes", 60)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Get returns the loaded configuration
func Get() *Config {
	return cfg
}

// Set installs a configuration directly. Used by tests.
func Set(c *Config) {
	cfg = c
}

// GetServerAddr returns the HTTP listen address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetRedisAddr returns the redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisService.Host, c.RedisService.Port)
}
