package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Ops         OpsConfig
	Worker      WorkerConfig
	Sources     SourcesConfig
	Dedup       DedupConfig
	Aggregation AggregationConfig
	DB          DatabaseConfig
	Cache       CacheConfig
	Logging     LoggingConfig
}

type OpsConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	FetchTimeout time.Duration
	PollInterval time.Duration

	USGSEnabled bool
	USGSURL     string

	FIRMSEnabled    bool
	FIRMSURL        string
	FIRMSAPIKey     string
	FIRMSInstrument string
	FIRMSMinConf    int

	NWSEnabled bool
	NWSURL     string

	UserEnabled bool
}

type DedupConfig struct {
	Window time.Duration // recency window for the bulk existing-key prefetch
}

type AggregationConfig struct {
	TimeWindow time.Duration // half-width of the temporal match window
	BoxDegrees float64       // half-width of the bounding box, degrees
}

type DatabaseConfig struct {
	Path string
}

type CacheConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Ops: OpsConfig{
			Host: getEnv("OPS_HOST", "localhost"),
			Port: getEnvInt("OPS_PORT", 8080),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 8),
		},
		Sources: SourcesConfig{
			FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
			PollInterval:    getEnvDuration("POLL_INTERVAL", 5*time.Minute),
			USGSEnabled:     getEnvBool("USGS_ENABLED", true),
			USGSURL:         getEnv("USGS_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/4.5_week.geojson"),
			FIRMSEnabled:    getEnvBool("FIRMS_ENABLED", true),
			FIRMSURL:        getEnv("FIRMS_URL", "https://firms.modaps.eosdis.nasa.gov/api/area/csv"),
			FIRMSAPIKey:     getEnv("FIRMS_API_KEY", ""),
			FIRMSInstrument: getEnv("FIRMS_INSTRUMENT", "VIIRS_SNPP_NRT"),
			FIRMSMinConf:    getEnvInt("FIRMS_MIN_CONFIDENCE", 75),
			NWSEnabled:      getEnvBool("NWS_ENABLED", true),
			NWSURL:          getEnv("NWS_URL", "https://api.weather.gov/alerts/active"),
			UserEnabled:     getEnvBool("USER_SUBMISSIONS_ENABLED", true),
		},
		Dedup: DedupConfig{
			Window: getEnvDuration("DEDUP_WINDOW", 48*time.Hour),
		},
		Aggregation: AggregationConfig{
			TimeWindow: getEnvDuration("AGG_TIME_WINDOW", 12*time.Hour),
			BoxDegrees: getEnvFloat("AGG_BOX_DEGREES", 0.5),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/hazardwatch.db"),
		},
		Cache: CacheConfig{
			Enabled:  getEnvBool("CACHE_ENABLED", false),
			Addr:     getEnv("CACHE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("CACHE_REDIS_PASSWORD", ""),
			DB:       getEnvInt("CACHE_REDIS_DB", 0),
			Key:      getEnv("CACHE_KEY", "hazardwatch:api:disasters"),
			Timeout:  getEnvDuration("CACHE_TIMEOUT", 3*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Ops.Port < 1 || c.Ops.Port > 65535 {
		return fmt.Errorf("invalid ops port: %d", c.Ops.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Sources.PollInterval < time.Minute {
		return fmt.Errorf("poll interval must be at least 1 minute")
	}
	if c.Sources.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Dedup.Window <= 0 {
		return fmt.Errorf("dedup window must be positive")
	}
	if c.Aggregation.TimeWindow <= 0 {
		return fmt.Errorf("aggregation time window must be positive")
	}
	if c.Aggregation.BoxDegrees <= 0 {
		return fmt.Errorf("aggregation box degrees must be positive")
	}
	if c.Sources.FIRMSMinConf < 0 || c.Sources.FIRMSMinConf > 100 {
		return fmt.Errorf("FIRMS minimum confidence must be 0-100: %d", c.Sources.FIRMSMinConf)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
