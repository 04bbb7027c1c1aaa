package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lims-backend/internal/config"
	"lims-backend/internal/metadata"
	"lims-backend/internal/store"
	"lims-backend/internal/users"
)

func testUserStore(t *testing.T) *users.Store {
	t.Helper()
	ctx := context.Background()

	db, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	reg := metadata.NewDefaultRegistry()
	require.NoError(t, db.EnsureEntityTables(ctx, reg.All()))

	return users.NewStore(db, reg.Get("users"))
}

func TestCreateStoresHashNotRawPassword(t *testing.T) {
	ctx := context.Background()
	s := testUserStore(t)

	record, err := s.Create(ctx, "alice", "s3cret", map[string]any{"fullname": "Alice", "junk": "x"})
	require.NoError(t, err)

	assert.Equal(t, "alice", record["username"])
	assert.Equal(t, "Alice", record["fullname"])
	assert.NotContains(t, record, "junk")

	hash, _ := record["password"].(string)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, users.CheckPassword("s3cret", hash))
}

func TestCreate_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := testUserStore(t)

	first, err := s.Create(ctx, "bob", "pw1", nil)
	require.NoError(t, err)

	_, err = s.Create(ctx, "bob", "pw2", nil)
	assert.ErrorIs(t, err, users.ErrDuplicate)

	// the original record is unchanged
	again, err := s.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, first["id"], again["id"])
	assert.Equal(t, first["password"], again["password"])
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	s := testUserStore(t)

	_, err := s.Create(ctx, "carol", "topsecret", nil)
	require.NoError(t, err)

	ok, err := s.Verify(ctx, "carol", "topsecret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, "carol", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	// unknown user: false, no error, no existence leak
	ok, err = s.Verify(ctx, "nobody", "whatever")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	s := testUserStore(t)

	require.NoError(t, s.EnsureDefaultAdmin(ctx, "admin", "admin"))

	admin, err := s.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Administrator", admin["fullname"])

	ok, err := s.Verify(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.True(t, ok)

	// second run on a non-empty table creates nothing
	require.NoError(t, s.EnsureDefaultAdmin(ctx, "admin2", "admin2"))
	_, err = s.FindByUsername(ctx, "admin2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
