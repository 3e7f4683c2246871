package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoConfig describes how the order store reaches its database.
// Zero durations and pool sizes fall back to the defaults below.
type MongoConfig struct {
	URI      string
	Database string
	AppName  string

	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

const (
	defaultConnectTimeout         = 10 * time.Second
	defaultServerSelectionTimeout = 5 * time.Second
	defaultMaxPoolSize            = 20
)

// clientOptions builds the driver options. Paid orders are acknowledged by
// the majority so a failover cannot roll a confirmed purchase back.
func (c MongoConfig) clientOptions() *options.ClientOptions {
	connect := c.ConnectTimeout
	if connect <= 0 {
		connect = defaultConnectTimeout
	}
	selection := c.ServerSelectionTimeout
	if selection <= 0 {
		selection = defaultServerSelectionTimeout
	}
	maxPool := c.MaxPoolSize
	if maxPool == 0 {
		maxPool = defaultMaxPoolSize
	}
	minPool := c.MinPoolSize
	if minPool > maxPool {
		minPool = maxPool
	}

	opts := options.Client().
		ApplyURI(c.URI).
		SetConnectTimeout(connect).
		SetServerSelectionTimeout(selection).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(minPool).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority())
	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	return opts
}

// Connect opens the order database and checks the primary answers.
func Connect(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongo uri and database are required")
	}

	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("connect order store: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping order store: %w", err)
	}

	return client.Database(cfg.Database), nil
}
