package repository

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"souvenir/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestCounter_Next_StartsAtOne(t *testing.T) {
	repo := NewCounterRepository(newTestDB(t))
	ctx := context.Background()

	seq, err := repo.Next(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = repo.Next(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestCounter_Next_IndependentPerYear(t *testing.T) {
	repo := NewCounterRepository(newTestDB(t))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		seq, err := repo.Next(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, i, seq)
	}

	seq, err := repo.Next(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq, "a new year starts from 1")
}

// N concurrent mints for one year must produce N distinct consecutive
// values with no duplicates and no gaps.
func TestCounter_Next_ConcurrentDistinct(t *testing.T) {
	repo := NewCounterRepository(newTestDB(t))
	ctx := context.Background()

	const n = 25
	results := make([]int64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.Next(ctx, 2025)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "call %d", i)
	}

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, seq := range results {
		assert.Equal(t, int64(i+1), seq)
	}

	current, err := repo.Current(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(n), current)
}

func TestCounter_Current_ZeroWithoutOrders(t *testing.T) {
	repo := NewCounterRepository(newTestDB(t))

	seq, err := repo.Current(context.Background(), 1999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}
