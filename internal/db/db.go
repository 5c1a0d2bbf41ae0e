package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Options tunes the outcome-log pool. The database is an optional sink, so the pool is
// kept small and startup waits only briefly for it.
type Options struct {
	ApplicationName string
	MaxConns        int32
	ConnectAttempts uint64
}

func (o Options) withDefaults() Options {
	if o.ApplicationName == "" {
		o.ApplicationName = "payment-notification"
	}
	if o.MaxConns <= 0 {
		o.MaxConns = 5
	}
	if o.ConnectAttempts == 0 {
		o.ConnectAttempts = 3
	}
	return o
}

// Connect opens a pgx pool and pings it, retrying the ping with backoff while the
// database comes up.
func Connect(ctx context.Context, dbURL string, opts Options) (*pgxpool.Pool, error) {
	opts = opts.withDefaults()

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	config.MaxConns = opts.MaxConns
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.ConnConfig.RuntimeParams["application_name"] = opts.ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}
	notify := func(err error, wait time.Duration) {
		zap.L().Warn("database not ready", zap.Duration("retry_in", wait), zap.Error(err))
	}
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, opts.ConnectAttempts-1), ctx)
	if err := backoff.RetryNotify(ping, retry, notify); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return pool, nil
}
