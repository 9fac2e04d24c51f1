package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Marketplace/internal/auth"
	"Marketplace/pkg/kit"
)

type config struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Port         string        `envconfig:"PORT" default:"8081"`
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"15m"`
	MetricsToken string        `envconfig:"METRICS_TOKEN"`

	Postgres kit.PostgresConfig
}

func main() {
	const service = "auth"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 chars")
	}

	s := &auth.Server{
		Log:      log,
		Store:    auth.NewStore(),
		JWT:      auth.NewTokenMaker(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}
	var closers []kit.Closer

	if cfg.Postgres.Enabled() {
		db, err := cfg.Postgres.Open(context.Background())
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		s.Store = auth.NewPostgresStore(db)
		closers = append(closers, db.Close)
	}

	h := auth.NewHandler(s, auth.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, closers...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
