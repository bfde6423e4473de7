package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
	MediaURL  string // blob-store endpoint; empty disables image uploads
}

func Load() *Config {
	cfg := &Config{
		Addr:      "127.0.0.1:5000",
		DBPath:    "quickchat.db",
		JWTSecret: "dev-secret-change-me",
		TokenTTL:  7 * 24 * time.Hour,
	}

	if addr := os.Getenv("QUICKCHAT_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if dbPath := os.Getenv("QUICKCHAT_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if secret := os.Getenv("QUICKCHAT_JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if ttlStr := os.Getenv("QUICKCHAT_TOKEN_TTL"); ttlStr != "" {
		if secs, err := strconv.Atoi(ttlStr); err == nil && secs > 0 {
			cfg.TokenTTL = time.Duration(secs) * time.Second
		}
	}
	if mediaURL := os.Getenv("QUICKCHAT_MEDIA_URL"); mediaURL != "" {
		cfg.MediaURL = mediaURL
	}

	return cfg
}
