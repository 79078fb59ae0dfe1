// FilePath: server/dashboard/internal/database/database.go
package database

import (
	"context"
	"fmt"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB is an interface that SQL-backed stores must implement
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
}

// TimescaleDB represents a TimescaleDB database connection
type TimescaleDB struct {
	db *sqlx.DB
}

// NewTimescaleDB creates a new TimescaleDB database connection
func NewTimescaleDB(cfg config.PostgresConfig) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to TimescaleDB: %w", err)
	}

	// Verify TimescaleDB extension
	var hasTimescaleDB bool
	err = db.Get(&hasTimescaleDB, "SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')")
	if err != nil || !hasTimescaleDB {
		db.Close()
		return nil, fmt.Errorf("TimescaleDB extension not available")
	}

	nuts.L.Infof("[TimescaleDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &TimescaleDB{db: db}, nil
}

func (t *TimescaleDB) Close() error {
	return t.db.Close()
}

func (t *TimescaleDB) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func (t *TimescaleDB) GetDB() *sqlx.DB {
	return t.db
}

// NewMongoClient connects to the event document store and verifies the connection
func NewMongoClient(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	nuts.L.Infof("[MongoDB] Connected to database %s", cfg.Database)
	return client, nil
}

// NewRedisClient connects to the dataset cache
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	nuts.L.Infof("[Redis] Connected to %s:%d/%d", cfg.Host, cfg.Port, cfg.DB)
	return client, nil
}
