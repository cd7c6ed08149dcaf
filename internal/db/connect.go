package db

import (
	"context"
	"fmt"
	"time"

	"ton_shooter/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the pool and waits for the first successful ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "max_conns", cfg.MaxConns)
	return pool, nil
}

// MustConnect is Connect for main packages, без базы не стартуем
func MustConnect(dsn string) *pgxpool.Pool {
	pool, err := Connect(context.Background(), dsn)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	return pool
}
