package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/sharebox/internal/database"
	"github.com/koustreak/sharebox/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := database.DefaultConfig(database.DriverPostgres)
	cfg.Host = "db.internal"
	cfg.User = "app"
	cfg.Password = "s3cr#t"
	cfg.Database = "sharebox"

	poolCfg, err := pgxpool.ParseConfig(buildDSN(cfg))
	require.NoError(t, err)

	cc := poolCfg.ConnConfig
	assert.Equal(t, "db.internal", cc.Host)
	assert.Equal(t, uint16(5432), cc.Port)
	assert.Equal(t, "app", cc.User)
	assert.Equal(t, "s3cr#t", cc.Password)
	assert.Equal(t, "sharebox", cc.Database)
}

func TestBuildDSN_SSLMode(t *testing.T) {
	cfg := &database.Config{Host: "h", Port: 6543, User: "u", Database: "d", SSLMode: "disable"}

	dsn := buildDSN(cfg)
	assert.Contains(t, dsn, "h:6543")
	assert.Contains(t, dsn, "sslmode=disable")

	cfg.SSLMode = ""
	assert.Contains(t, buildDSN(cfg), "sslmode=prefer")
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", pgx.ErrNoRows, errs.ErrKindNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, errs.ErrKindConflict},
		{"bad password", &pgconn.PgError{Code: "28P01"}, errs.ErrKindPermissionDenied},
		{"invalid authorization", &pgconn.PgError{Code: "28000"}, errs.ErrKindPermissionDenied},
		{"connection class", &pgconn.PgError{Code: "08006"}, errs.ErrKindConnectionFailed},
		{"syntax", &pgconn.PgError{Code: "42601"}, errs.ErrKindQueryFailed},
		{"network", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapError(tt.err, "op").Kind)
		})
	}
}

func TestMapError_KeepsServerMessage(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}, "exec failed")

	assert.Contains(t, err.Error(), "exec failed: duplicate key value")
	assert.Nil(t, mapError(nil, "op"))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, database.DialectPostgres, (&Driver{}).Dialect())
}

func TestMigrate_ClosesSQLView(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://app@127.0.0.1:1/sharebox")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var got *sql.DB
	orig := migrateUp
	t.Cleanup(func() { migrateUp = orig })
	migrateUp = func(_ context.Context, db *sql.DB, dialect string) error {
		assert.Equal(t, "pgx", dialect)
		got = db
		return nil
	}

	d := &Driver{pool: pool}
	require.NoError(t, d.Migrate(context.Background()))
	require.NotNil(t, got)
	assert.ErrorContains(t, got.PingContext(context.Background()), "database is closed")
}

func TestMigrate_WrapsFailure(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://app@127.0.0.1:1/sharebox")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	orig := migrateUp
	t.Cleanup(func() { migrateUp = orig })
	migrateUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }

	err = (&Driver{pool: pool}).Migrate(context.Background())
	assert.True(t, errs.IsQueryFailed(err))
}
