package kit

import "go.uber.org/zap"

const envProduction = "production"

// NewLogger builds the service logger. Anything other than the production
// environment gets zap's human-readable development config.
func NewLogger(service, env string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if env != envProduction {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]any{"service": service, "env": env}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
