package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lims-backend/internal/config"
	"lims-backend/internal/metadata"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		Name:   ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestEnsureEntityTables_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	entities := metadata.Defaults()

	require.NoError(t, s.EnsureEntityTables(ctx, entities))
	// second run must be a no-op, not an error
	require.NoError(t, s.EnsureEntityTables(ctx, entities))
}

func TestInsertAndQueryRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.EnsureEntityTables(ctx, metadata.Defaults()))

	id, err := Insert(ctx, s.DB, s.Dialect,
		"INSERT INTO materials (matid, name) VALUES (?1, ?2)", "M1", "Actin")
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	row, err := QueryRow(ctx, s.DB, "SELECT id, matid, name, note FROM materials WHERE id = ?1", id)
	require.NoError(t, err)
	assert.Equal(t, id, row["id"])
	assert.Equal(t, "M1", row["matid"])
	assert.Equal(t, "Actin", row["name"])
	assert.Nil(t, row["note"])
}

func TestQueryRow_NotFound(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.EnsureEntityTables(ctx, metadata.Defaults()))

	_, err := QueryRow(ctx, s.DB, "SELECT id FROM gels WHERE id = ?1", int64(999))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsert_UniqueViolationMapped(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	require.NoError(t, s.EnsureEntityTables(ctx, metadata.Defaults()))

	_, err := Insert(ctx, s.DB, s.Dialect,
		"INSERT INTO users (username, password) VALUES (?1, ?2)", "alice", "x")
	require.NoError(t, err)

	_, err = Insert(ctx, s.DB, s.Dialect,
		"INSERT INTO users (username, password) VALUES (?1, ?2)", "alice", "y")
	assert.True(t, errors.Is(err, ErrUniqueViolation), "got %v", err)
}

func TestBuildCreateTableSQL(t *testing.T) {
	e := &metadata.Entity{
		Name:   "users",
		Table:  "users",
		Fields: []string{"username", "password"},
		Unique: []string{"username"},
	}

	ddl := buildCreateTableSQL(&SQLiteDialect{}, e)
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, ddl, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, ddl, "username TEXT UNIQUE")
	assert.NotContains(t, ddl, "NOT NULL")
	assert.Contains(t, ddl, "password TEXT")

	pg := buildCreateTableSQL(&PostgresDialect{}, e)
	assert.Contains(t, pg, "GENERATED ALWAYS AS IDENTITY")
}

func TestParamBuilders(t *testing.T) {
	pg := (&PostgresDialect{}).NewParamBuilder()
	assert.Equal(t, "$1", pg.Add("a"))
	assert.Equal(t, "$2", pg.Add("b"))
	assert.Equal(t, []any{"a", "b"}, pg.Params())

	lite := (&SQLiteDialect{}).NewParamBuilder()
	assert.Equal(t, "?1", lite.Add("a"))
	assert.Equal(t, "?2", lite.Add("b"))
}
