package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-engine/renewal"
	"github.com/warp/renewal-engine/store/sqlite"
	"github.com/warp/renewal-engine/store/storetest"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "renewals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) renewal.ReceiptStore {
		return openStore(t)
	})
}

func TestSQLiteStore_Ping(t *testing.T) {
	s := openStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	// GIVEN: a receipt written to a database file
	path := filepath.Join(t.TempDir(), "renewals.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), storetest.Receipt("P1-100000", "key-1", 0)))
	require.NoError(t, s.Close())

	// WHEN: the file is opened again (migrations rerun)
	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	// THEN: the receipt and its idempotency key are still there
	got, err := reopened.FindByIdempotencyKey(context.Background(), "key-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "15753.00", got.Bill.Total.String())
}
