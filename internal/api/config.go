package api

import (
	"time"

	"github.com/katakuxiko/deenbot/internal/config"
)

type Config struct {
	ListenAddr   string
	UploadDir    string
	BodyLimit    int
	Concurrency  int
	IdleTimeout  time.Duration
	CORSOrigins  []string
	JWTSecret    string
	AuthRequired bool
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ListenAddr:   cfg.Server.Listen,
		UploadDir:    cfg.Server.UploadDir,
		BodyLimit:    cfg.Server.BodyLimit,
		Concurrency:  cfg.Server.Concurrency,
		IdleTimeout:  cfg.Server.IdleTimeout,
		CORSOrigins:  cfg.Server.CORSOrigins,
		JWTSecret:    cfg.Auth.JWTSecret,
		AuthRequired: cfg.Auth.Required,
	}
}
