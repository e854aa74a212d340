package app

import (
	"github.com/ArthurrMrv/graph-project/internal/platform/envutil"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	ChunkSize         int
	VolatilityWindow  int
	MaxConcurrentRuns int64

	MetricsAddr string
	RedisAddr   string
}

func LoadConfig() Config {
	return Config{
		Port:              envutil.Str("PORT", "8080"),
		Environment:       envutil.Str("APP_ENV", "development"),
		Version:           envutil.Str("APP_VERSION", "dev"),
		ChunkSize:         envutil.Int("INGEST_CHUNK_SIZE", 2000),
		VolatilityWindow:  envutil.Int("INGEST_VOLATILITY_WINDOW", 7),
		MaxConcurrentRuns: int64(envutil.Int("INGEST_MAX_CONCURRENT_RUNS", 4)),
		MetricsAddr:       envutil.Str("METRICS_ADDR", ""),
		RedisAddr:         envutil.Str("REDIS_ADDR", ""),
	}
}
