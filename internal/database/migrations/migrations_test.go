package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations_CreateUsers(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := fs.ReadFile(files, "sql/"+entries[0].Name())
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "-- +goose Up")
	assert.Contains(t, text, "CREATE TABLE IF NOT EXISTS users")
	assert.True(t, strings.Contains(text, "email    VARCHAR(255) NOT NULL UNIQUE"))
}

func TestUp_RunsGooseWithEmbeddedDir(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Up(context.Background(), nil, "mysql"))
	assert.Equal(t, "sql", gotDir)
}

func TestUp_WrapsGooseError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	err := Up(context.Background(), nil, "pgx")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "apply migrations")
}

func TestUp_UnknownDialect(t *testing.T) {
	err := Up(context.Background(), nil, "oracle-ish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set migration dialect")
}
