package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the server needs. It is built once in main
// and passed to the components that use it; nothing reads the environment
// after startup.
type Config struct {
	DatabaseURL    string
	Port           string
	SecretKey      string
	AccessTokenTTL time.Duration

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	GoogleMapsAPIKey string

	MailUsername string
	MailPassword string
	MailServer   string
	MailPort     int
	MailFrom     string

	RateLimitPerMinute int
	RedisAddr          string
}

func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                os.Getenv("PORT"),
		SecretKey:           os.Getenv("SECRET_KEY"),
		CloudinaryName:      os.Getenv("CLOUDINARY_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		GoogleMapsAPIKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),
		MailUsername:        os.Getenv("MAIL_USERNAME"),
		MailPassword:        os.Getenv("MAIL_PASSWORD"),
		MailServer:          os.Getenv("MAIL_SERVER"),
		MailFrom:            os.Getenv("MAIL_FROM"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("SECRET_KEY environment variable is not set")
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	if cfg.MailFrom == "" {
		cfg.MailFrom = "devevents@email.com"
	}

	ttlSeconds, err := envInt("ACCESS_TOKEN_EXPIRE_SECONDS", 604800)
	if err != nil {
		return Config{}, err
	}
	cfg.AccessTokenTTL = time.Duration(ttlSeconds) * time.Second

	if cfg.MailPort, err = envInt("MAIL_PORT", 2525); err != nil {
		return Config{}, err
	}

	if cfg.RateLimitPerMinute, err = envInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)

	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)

	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %v", key, err)
	}

	return value, nil
}
