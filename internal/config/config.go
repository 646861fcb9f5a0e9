package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration for the CLI, SDK, and dev server.
type Config struct {
	API       APIConfig
	Share     ShareConfig
	Session   SessionConfig
	DevServer DevServerConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	// Client-side token bucket; zero RPS disables throttling.
	RateLimitRPS   float64
	RateLimitBurst int
}

type ShareConfig struct {
	// Base URL share links are derived from, without trailing slash.
	LinkBase string
}

type SessionConfig struct {
	// Path of the persisted credential file.
	CredentialsPath string
}

type DevServerConfig struct {
	Host           string
	Port           string
	JWTSecret      string
	TokenTTL       time.Duration
	RedisAddr      string
	RedisPassword  string
	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadConfig loads configuration from environment variables and an optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("EDITSYNC_API_URL", "http://localhost:5000/api")
	viper.SetDefault("EDITSYNC_API_TIMEOUT", 30)
	viper.SetDefault("EDITSYNC_API_RPS", 0.0)
	viper.SetDefault("EDITSYNC_API_BURST", 5)
	viper.SetDefault("EDITSYNC_SHARE_LINK_BASE", "https://editsync.app/share")
	viper.SetDefault("EDITSYNC_CREDENTIALS", defaultCredentialsPath())
	viper.SetDefault("DEVSERVER_HOST", "0.0.0.0")
	viper.SetDefault("DEVSERVER_PORT", "5000")
	viper.SetDefault("DEVSERVER_TOKEN_TTL", 60)
	viper.SetDefault("DEVSERVER_RATE_LIMIT_RPS", 0.0)
	viper.SetDefault("DEVSERVER_RATE_LIMIT_BURST", 20)

	cfg := &Config{
		API: APIConfig{
			BaseURL:        viper.GetString("EDITSYNC_API_URL"),
			Timeout:        time.Duration(viper.GetInt("EDITSYNC_API_TIMEOUT")) * time.Second,
			RateLimitRPS:   viper.GetFloat64("EDITSYNC_API_RPS"),
			RateLimitBurst: viper.GetInt("EDITSYNC_API_BURST"),
		},
		Share: ShareConfig{
			LinkBase: viper.GetString("EDITSYNC_SHARE_LINK_BASE"),
		},
		Session: SessionConfig{
			CredentialsPath: viper.GetString("EDITSYNC_CREDENTIALS"),
		},
		DevServer: DevServerConfig{
			Host:           viper.GetString("DEVSERVER_HOST"),
			Port:           viper.GetString("DEVSERVER_PORT"),
			JWTSecret:      os.Getenv("DEVSERVER_JWT_SECRET"),
			TokenTTL:       time.Duration(viper.GetInt("DEVSERVER_TOKEN_TTL")) * time.Minute,
			RedisAddr:      viper.GetString("DEVSERVER_REDIS_ADDR"),
			RedisPassword:  os.Getenv("DEVSERVER_REDIS_PASSWORD"),
			RateLimitRPS:   viper.GetFloat64("DEVSERVER_RATE_LIMIT_RPS"),
			RateLimitBurst: viper.GetInt("DEVSERVER_RATE_LIMIT_BURST"),
		},
	}

	return cfg, nil
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".editsync/credentials.json"
	}
	return filepath.Join(home, ".editsync", "credentials.json")
}
