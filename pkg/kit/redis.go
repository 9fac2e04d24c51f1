package kit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is nested under a field named Redis (REDIS_URL, ...).
type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
}

func (c RedisConfig) Enabled() bool { return c.URL != "" }

func (c RedisConfig) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, err
	}

	opts.ReadTimeout = c.ReadTimeout
	opts.WriteTimeout = c.WriteTimeout
	opts.DialTimeout = c.DialTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
