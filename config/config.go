package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port          string
	GinMode       string
	LogMode       string
	PublicBaseURL string

	StoreDriver    string
	MongoURI       string
	MongoDatabase  string
	ConnectRetries int

	UploadDir     string
	CloudinaryURL string
	MaxUploadMB   int

	CORSOrigins        []string
	RateLimitPerMinute int
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:5500",
	"http://127.0.0.1:5500",
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests do not touch the
// process environment.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(name, def string) string {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:          get("PORT", "3000"),
		GinMode:       get("GIN_MODE", "debug"),
		LogMode:       get("LOG_MODE", "development"),
		StoreDriver:   strings.ToLower(get("STORE_DRIVER", DriverMongo)),
		MongoURI:      get("MONGODB_URI", ""),
		MongoDatabase: get("MONGODB_DATABASE", "catstagram"),
		UploadDir:     get("UPLOAD_DIR", "uploads"),
		CloudinaryURL: get("CLOUDINARY_URL", ""),
		CORSOrigins:   splitList(get("CORS_ORIGINS", "")),
	}
	cfg.PublicBaseURL = strings.TrimRight(get("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port), "/")
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = append([]string(nil), defaultCORSOrigins...)
	}

	var errs []error
	intVar := func(dst *int, name string, def int) {
		raw := get(name, "")
		if raw == "" {
			*dst = def
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid non-negative integer %q", name, raw))
			return
		}
		*dst = n
	}
	intVar(&cfg.ConnectRetries, "MONGODB_CONNECT_RETRIES", 3)
	intVar(&cfg.MaxUploadMB, "MAX_UPLOAD_MB", 10)
	intVar(&cfg.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE", 60)

	switch cfg.StoreDriver {
	case DriverMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI must be set when STORE_DRIVER=mongo"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}
	if cfg.ConnectRetries == 0 {
		cfg.ConnectRetries = 1
	}
	if cfg.MaxUploadMB == 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Release() bool {
	return strings.EqualFold(c.GinMode, "release")
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
