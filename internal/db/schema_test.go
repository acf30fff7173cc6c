package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Croco1609/collectorPerso/internal/logger"
)

type fakeExecer struct {
	tableExists bool
	checkErr    error
	execErr     map[string]error

	statements []string
}

func (fake *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	fake.statements = append(fake.statements, strings.Join(strings.Fields(sql), " "))
	for prefix, err := range fake.execErr {
		if strings.HasPrefix(strings.TrimSpace(sql), prefix) {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.CommandTag{}, nil
}

func (fake *fakeExecer) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &boolRow{value: fake.tableExists, err: fake.checkErr}
}

type boolRow struct {
	value bool
	err   error
}

func (row *boolRow) Scan(dest ...any) error {
	if row.err != nil {
		return row.err
	}
	*(dest[0].(*bool)) = row.value
	return nil
}

func TestEnsureSchema_SkipsWithoutReset(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	database := &fakeExecer{}

	err := EnsureSchema(context.Background(), database, false, logger.FromZap(zap.New(core)))

	require.NoError(t, err)
	require.Empty(t, database.statements)
	require.Equal(t, 1, logs.FilterMessageSnippet("skipping").Len())
}

func TestEnsureSchema_Reset(t *testing.T) {
	t.Run("existing table is dropped then created", func(t *testing.T) {
		database := &fakeExecer{tableExists: true}

		err := EnsureSchema(context.Background(), database, true, logger.NewNop())

		require.NoError(t, err)
		require.Len(t, database.statements, 2)
		require.Equal(t, "DROP TABLE IF EXISTS articles;", database.statements[0])
		require.Contains(t, database.statements[1], "CREATE TABLE articles")
		require.Contains(t, database.statements[1], "price DECIMAL(10, 2) NOT NULL")
		require.Contains(t, database.statements[1], "created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
	})

	t.Run("missing table is only created", func(t *testing.T) {
		database := &fakeExecer{}

		err := EnsureSchema(context.Background(), database, true, logger.NewNop())

		require.NoError(t, err)
		require.Len(t, database.statements, 1)
		require.Contains(t, database.statements[0], "CREATE TABLE articles")
	})

	t.Run("check error", func(t *testing.T) {
		checkErr := errors.New("connection refused")
		database := &fakeExecer{checkErr: checkErr}

		err := EnsureSchema(context.Background(), database, true, logger.NewNop())

		require.ErrorIs(t, err, checkErr)
		require.Empty(t, database.statements)
	})

	t.Run("drop error stops before create", func(t *testing.T) {
		dropErr := errors.New("permission denied")
		database := &fakeExecer{tableExists: true, execErr: map[string]error{"DROP": dropErr}}

		err := EnsureSchema(context.Background(), database, true, logger.NewNop())

		require.ErrorIs(t, err, dropErr)
		require.Len(t, database.statements, 1)
	})

	t.Run("create error", func(t *testing.T) {
		createErr := errors.New("syntax error")
		database := &fakeExecer{execErr: map[string]error{"CREATE": createErr}}

		err := EnsureSchema(context.Background(), database, true, logger.NewNop())

		require.ErrorIs(t, err, createErr)
	})
}
