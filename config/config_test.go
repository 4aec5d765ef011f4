package config

import (
	"reflect"
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envMap(map[string]string{"MONGODB_URI": "mongodb://127.0.0.1:27017"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "3000" || cfg.MongoDatabase != "catstagram" || cfg.StoreDriver != DriverMongo {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PublicBaseURL != "http://localhost:3000" {
		t.Fatalf("PublicBaseURL: got=%q", cfg.PublicBaseURL)
	}
	if cfg.ConnectRetries != 3 || cfg.RateLimitPerMinute != 60 || cfg.MaxUploadBytes() != 10<<20 {
		t.Fatalf("unexpected numeric defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, defaultCORSOrigins) {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
	if cfg.Release() {
		t.Fatalf("default mode must not be release")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":                  "8080",
		"GIN_MODE":              "release",
		"STORE_DRIVER":          "Memory",
		"PUBLIC_BASE_URL":       "https://cats.example.com/",
		"CORS_ORIGINS":          "https://a.example.com, ,https://b.example.com",
		"RATE_LIMIT_PER_MINUTE": "0",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.StoreDriver != DriverMemory || !cfg.Release() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.PublicBaseURL != "https://cats.example.com" {
		t.Fatalf("PublicBaseURL: got=%q", cfg.PublicBaseURL)
	}
	if want := []string{"https://a.example.com", "https://b.example.com"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("CORSOrigins: got=%v want=%v", cfg.CORSOrigins, want)
	}
	if cfg.RateLimitPerMinute != 0 {
		t.Fatalf("RateLimitPerMinute: got=%d", cfg.RateLimitPerMinute)
	}
}

func TestFromEnvErrors(t *testing.T) {
	t.Parallel()

	_, err := FromEnv(envMap(map[string]string{
		"MAX_UPLOAD_MB": "lots",
		"STORE_DRIVER":  "mongo",
	}))
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"MAX_UPLOAD_MB", "MONGODB_URI"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}

	if _, err := FromEnv(envMap(map[string]string{"STORE_DRIVER": "redis"})); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
