package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Croco1609/collectorPerso/internal/config"
	"github.com/Croco1609/collectorPerso/internal/logger"
)

type poolPinger interface {
	Ping(ctx context.Context) error
	Close()
}

var (
	newPool  = pgxpool.NewWithConfig
	pingPool = func(ctx context.Context, pool poolPinger) error {
		return pool.Ping(ctx)
	}
	closePool = func(pool poolPinger) {
		pool.Close()
	}
)

// NewPool crea un pool de conexiones a PostgreSQL.
// Se usa un timeout corto para evitar que el arranque quede colgado si la DB no responde.
func NewPool(ctx context.Context, cfg config.Database, log logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db.NewPool: parse config: %w", err)
	}
	poolConfig.MaxConns = cfg.PoolMax
	withLifecycleLogs(poolConfig, log)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := newPool(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("db.NewPool: %w", err)
	}

	// Validación temprana: asegura que la app no arranca "a medias".
	if err := pingPool(ctx, pool); err != nil {
		closePool(pool)
		return nil, fmt.Errorf("db.NewPool: ping: %w", err)
	}

	log.Infow("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return pool, nil
}

// withLifecycleLogs registra apertura y cierre de cada conexión física del pool.
func withLifecycleLogs(poolConfig *pgxpool.Config, log logger.Logger) {
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		log.Debugw("postgres connection opened", "pid", conn.PgConn().PID())
		return nil
	}
	poolConfig.BeforeClose = func(conn *pgx.Conn) {
		log.Debugw("postgres connection closed", "pid", conn.PgConn().PID())
	}
}
