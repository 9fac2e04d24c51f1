package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Marketplace/internal/auth"
	"Marketplace/internal/listing"
	"Marketplace/pkg/kit"
)

type config struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Port         string        `envconfig:"PORT" default:"8082"`
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	MetricsToken string        `envconfig:"METRICS_TOKEN"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"listing-events"`

	Postgres kit.PostgresConfig
	Redis    kit.RedisConfig
}

func main() {
	const service = "listing"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		panic(err)
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := &listing.Service{
		Store:      listing.NewMemStore(),
		Categories: listing.DefaultRegistry,
		Metrics:    listing.NewMetrics(reg),
		Log:        log,
	}
	var closers []kit.Closer

	if cfg.Postgres.Enabled() {
		db, err := cfg.Postgres.Open(ctx)
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		svc.Store = listing.NewPostgresStore(db)
		closers = append(closers, db.Close)
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory store")
	}

	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			log.Fatal("redis connect failed", zap.Error(err))
		}
		svc.Cache = listing.NewRedisCache(rdb, cfg.CacheTTL)
		closers = append(closers, rdb.Close)
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub := listing.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		svc.Events = pub
		closers = append(closers, pub.Close)
	}

	h := listing.NewHandler(svc, listing.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		JWT:            auth.NewTokenMaker(cfg.JWTSecret),
		MetricsEnabled: true,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, closers...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
