package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
	"go.uber.org/zap"
)

type PostgresOpts struct {
	URI string
}

var (
	connStr string
	pool    *pgxpool.Pool
)

func InitPostgres(opts PostgresOpts) error {
	if opts.URI == "" {
		return errors.New("Postgres URI is required")
	}

	conn, err := pgx.Connect(context.Background(), opts.URI)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer conn.Close(context.Background())
	connStr = opts.URI

	poolConfig, err := pgxpool.ParseConfig(opts.URI)
	if err != nil {
		return fmt.Errorf("failed to parse Postgres URI: %w", err)
	}

	poolConfig.MaxConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	logger.Info("Initializing database connection pool",
		zap.Int32("MaxConns", poolConfig.MaxConns))

	pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create Postgres pool: %w", err)
	}

	return nil
}

func MustGetUnpooledPostgresSession() *pgx.Conn {
	if connStr == "" {
		panic("Postgres is not initialized")
	}

	conn, err := pgx.Connect(context.Background(), connStr)
	if err != nil {
		panic("failed to connect to Postgres: " + err.Error())
	}

	return conn
}

func MustGetPooledPostgresSession() *pgxpool.Conn {
	if pool == nil {
		panic("Postgres pool is not initialized")
	}

	// retry with a growing timeout so a briefly saturated pool does not
	// kill the worker
	var conn *pgxpool.Conn
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		timeout := time.Duration(attempt) * 5 * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)

		conn, err = pool.Acquire(ctx)
		cancel()

		if err == nil {
			return conn
		}

		logger.Warn("Failed to acquire DB connection",
			zap.Int("attempt", attempt),
			zap.Error(err))

		time.Sleep(time.Duration(attempt*100) * time.Millisecond)
	}

	logger.Error(fmt.Errorf("failed to acquire from Postgres pool after 3 attempts: %w", err))
	panic("failed to acquire from Postgres pool: " + err.Error())
}

// PingPostgres verifies a pooled connection can run a query.
func PingPostgres(ctx context.Context) error {
	conn := MustGetPooledPostgresSession()
	defer conn.Release()

	var one int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping query failed: %w", err)
	}
	if one != 1 {
		return fmt.Errorf("ping query returned unexpected result: %d", one)
	}

	return nil
}
