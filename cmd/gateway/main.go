package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Marketplace/internal/gateway"
	"Marketplace/pkg/kit"
)

type config struct {
	Env          string `envconfig:"APP_ENV" default:"development"`
	Port         string `envconfig:"PORT" default:"8080"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	MetricsToken string `envconfig:"METRICS_TOKEN"`
	AuthURL      string `envconfig:"AUTH_URL" default:"http://auth:8081"`
	ListingURL   string `envconfig:"LISTING_URL" default:"http://listing:8082"`
}

func main() {
	const service = "gateway"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	h, err := gateway.NewHandler(gateway.Deps{
		JWTSecret:  cfg.JWTSecret,
		AuthURL:    cfg.AuthURL,
		ListingURL: cfg.ListingURL,
	}, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
