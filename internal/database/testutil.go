package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

// TestPool returns the migrated pool shared by all integration tests of the
// process. The test is skipped when TEST_DATABASE_URL is unset.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	sharedPoolOnce.Do(func() {
		ctx := context.Background()
		sharedPool, sharedPoolErr = Connect(ctx, dbURL)
		if sharedPoolErr != nil {
			return
		}
		sharedPoolErr = RunMigrations(ctx, sharedPool)
	})
	if sharedPoolErr != nil {
		t.Fatalf("failed to prepare test database: %v", sharedPoolErr)
	}
	return sharedPool
}

// TestTx opens a transaction on the shared pool that is rolled back when the
// test ends. Companies, users and expenses created through it never leak
// into other tests, so tests using it may run in parallel.
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin test transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}
