package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/illegalcall/mentor-tracker/internal/config"
	"github.com/illegalcall/mentor-tracker/internal/store"
)

const connectTimeout = 10 * time.Second

// Clients holds the connections a process needs. Exactly one of DB and Mongo
// is set, depending on the configured store driver.
type Clients struct {
	DB    *sqlx.DB
	Mongo *mongo.Client
	Redis *redis.Client

	mongoCfg config.MongoConfig
}

func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	c := &Clients{mongoCfg: cfg.Mongo}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		c.Mongo = client
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}
	c.Redis = redisClient

	slog.Info("✅ Connected to data stores", "driver", cfg.Store.Driver)
	return c, nil
}

// NewRedisClients connects to Redis only, for processes that never touch the
// profile store.
func NewRedisClients(ctx context.Context, cfg config.RedisConfig) (*Clients, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	redisClient, err := connectRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("✅ Connected to Redis", "addr", cfg.Addr)
	return &Clients{Redis: redisClient}, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Accessor returns the profile accessor for the connected engine and makes
// sure its schema or indexes exist.
func (c *Clients) Accessor(ctx context.Context) (store.Accessor, error) {
	if c.DB != nil {
		acc := store.NewPostgresAccessor(c.DB)
		if err := acc.CreateProfilesTable(ctx); err != nil {
			return nil, err
		}
		return acc, nil
	}
	if c.Mongo != nil {
		coll := c.Mongo.Database(c.mongoCfg.Database).Collection(c.mongoCfg.Collection)
		acc := store.NewMongoAccessor(coll)
		if err := acc.CreateIndexes(ctx); err != nil {
			return nil, err
		}
		return acc, nil
	}
	return nil, fmt.Errorf("no store connection")
}

func (c *Clients) Close(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.DB != nil {
		keep(c.DB.Close())
	}
	if c.Mongo != nil {
		keep(c.Mongo.Disconnect(ctx))
	}
	if c.Redis != nil {
		keep(c.Redis.Close())
	}
	return firstErr
}
