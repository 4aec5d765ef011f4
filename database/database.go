package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catstagram/logger"
)

const postsCollection = "posts"

// DB is the process's MongoDB handle. main opens it at startup and closes
// it on shutdown.
type DB struct {
	Client *mongo.Client
	db     *mongo.Database
}

type Options struct {
	URI        string
	Database   string
	Retries    int
	RetryDelay time.Duration
}

// Connect dials and pings MongoDB, retrying up to opts.Retries times.
func Connect(ctx context.Context, log *logger.Logger, opts Options) (*DB, error) {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		client, err := connectOnce(ctx, opts.URI)
		if err == nil {
			log.Info("MongoDB connected", "database", opts.Database, "attempt", attempt)
			return &DB{Client: client, db: client.Database(opts.Database)}, nil
		}
		lastErr = err
		log.Warn("MongoDB connection attempt failed", "attempt", attempt, "retries", opts.Retries, "error", err)
		if attempt == opts.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	return nil, fmt.Errorf("connect mongodb: %w", lastErr)
}

func connectOnce(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func (d *DB) Posts() *mongo.Collection {
	return d.db.Collection(postsCollection)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

func (d *DB) Disconnect(ctx context.Context) error {
	if d == nil || d.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return d.Client.Disconnect(ctx)
}
