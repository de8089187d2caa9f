package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// owns the mongo connection; repositories receive the database handle from it
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// implemented by repositories that need indexes at startup
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// connects to mongoURL and verifies the primary is reachable
func NewClient(ctx context.Context, mongoURL, dbName string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(mongoURL).
		SetServerSelectionTimeout(connectTimeout).
		SetAppName("avksport-server")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck // connection never used
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{client: client, db: client.Database(dbName)}, nil
}

func (c *Client) Database() *mongo.Database {
	return c.db
}

// checks the primary is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// creates indexes for every repository, stopping at the first failure
func (c *Client) EnsureIndexes(ctx context.Context, repos ...IndexEnsurer) error {
	for _, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
