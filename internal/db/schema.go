package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Croco1609/collectorPerso/internal/logger"
)

// Execer es lo mínimo que necesita EnsureSchema; *pgxpool.Pool lo cumple.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	tableExistsQuery = `SELECT to_regclass('public.articles') IS NOT NULL;`
	dropTableQuery   = `DROP TABLE IF EXISTS articles;`
	createTableQuery = `
		CREATE TABLE articles (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			image_url TEXT,
			price DECIMAL(10, 2) NOT NULL,
			seller_id VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
)

// EnsureSchema recrea la tabla articles cuando reset es true.
// Sin reset se asume que el esquema ya existe (modo persistente) y no se toca nada.
func EnsureSchema(ctx context.Context, database Execer, reset bool, log logger.Logger) error {
	if !reset {
		log.Infow("skipping database initialisation (persistent mode)")
		return nil
	}

	var exists bool
	if err := database.QueryRow(ctx, tableExistsQuery).Scan(&exists); err != nil {
		return fmt.Errorf("db.EnsureSchema: check table: %w", err)
	}

	if exists {
		if _, err := database.Exec(ctx, dropTableQuery); err != nil {
			return fmt.Errorf("db.EnsureSchema: drop table: %w", err)
		}
		log.Warnw("dropped table", "table", "articles")
	}

	if _, err := database.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("db.EnsureSchema: create table: %w", err)
	}
	log.Infow("created table", "table", "articles")

	return nil
}
