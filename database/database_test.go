package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"catstagram/logger"
)

func TestConnectInvalidURIFails(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), logger.NewNop(), Options{
		URI:        "not-a-mongo-uri",
		Database:   "catstagram",
		Retries:    2,
		RetryDelay: time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "connect mongodb") {
		t.Fatalf("Connect: got=%v want connect mongodb error", err)
	}
}

func TestConnectStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Connect(ctx, logger.NewNop(), Options{
		URI:        "not-a-mongo-uri",
		Retries:    5,
		RetryDelay: time.Hour,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDisconnectNil(t *testing.T) {
	t.Parallel()

	var db *DB
	if err := db.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect(nil): %v", err)
	}
}

func TestConnectIntegration(t *testing.T) {
	uri := strings.TrimSpace(os.Getenv("CATSTAGRAM_MONGO_TEST_URI"))
	if uri == "" {
		t.Skip("set CATSTAGRAM_MONGO_TEST_URI to run MongoDB integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Connect(ctx, logger.NewNop(), Options{URI: uri, Database: "catstagram_test", Retries: 1})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Disconnect(context.Background())

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got := db.Posts().Name(); got != "posts" {
		t.Fatalf("collection: got=%q want=posts", got)
	}
}
