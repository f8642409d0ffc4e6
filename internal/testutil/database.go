// Package testutil provides a migrated SQLite store and transaction fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/storage"
	"github.com/stretchr/testify/require"
)

// TestDB is a migrated database scoped to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated store in the test's temp directory. It is
// closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "noumi.db"))
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()), "failed to run migrations")

	return &TestDB{Storage: store, t: t}
}

// MustCreateUser stores a user who signed up at createdAt. A zero createdAt
// uses the store's clock.
func (db *TestDB) MustCreateUser(email, name string, createdAt time.Time) *model.User {
	db.t.Helper()
	user := &model.User{Email: email, Name: name, CreatedAt: createdAt}
	require.NoError(db.t, db.Storage.CreateUser(context.Background(), user))
	return user
}

// MustSave stores txns and requires every one to be new.
func (db *TestDB) MustSave(txns []model.Transaction) {
	db.t.Helper()
	n, err := db.Storage.SaveTransactions(context.Background(), txns)
	require.NoError(db.t, err)
	require.Equal(db.t, len(txns), n, "expected every fixture transaction to be inserted")
}
