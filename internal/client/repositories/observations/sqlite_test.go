package observations

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE observations (
  value BLOB PRIMARY KEY,
  seen_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestInsert_NewAndDuplicate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	o := &models.ObservedCEN{Value: []byte("id-1............"), SeenAt: time.Unix(1000, 0)}

	inserted, err := r.Insert(ctx, o)
	require.NoError(t, err)
	assert.True(t, inserted)

	// same identifier again
	inserted, err = r.Insert(ctx, o)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate must report not-inserted")

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestGetAll_OrderedBySeenAt(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Insert(ctx, &models.ObservedCEN{Value: []byte("later"), SeenAt: time.Unix(2000, 0)})
	require.NoError(t, err)
	_, err = r.Insert(ctx, &models.ObservedCEN{Value: []byte("earlier"), SeenAt: time.Unix(1000, 0)})
	require.NoError(t, err)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []byte("earlier"), all[0].Value)
	assert.Equal(t, int64(1000), all[0].SeenAt.Unix())
	assert.Equal(t, []byte("later"), all[1].Value)
}

func TestGetAll_Empty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	all, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPruneBefore(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Insert(ctx, &models.ObservedCEN{Value: []byte("old"), SeenAt: time.Unix(1000, 0)})
	require.NoError(t, err)
	_, err = r.Insert(ctx, &models.ObservedCEN{Value: []byte("fresh"), SeenAt: time.Unix(3000, 0)})
	require.NoError(t, err)

	pruned, err := r.PruneBefore(ctx, time.Unix(2000, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []byte("fresh"), all[0].Value)
}
