package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishibazaar/marketplace/internal/domain/inventory"
	domain "github.com/krishibazaar/marketplace/internal/domain/product"
)

func seed(t *testing.T, repo *ProductRepository, id string, qty int) {
	t.Helper()
	p, err := domain.New(id, "farmer-1", "Tomatoes", decimal.NewFromInt(30), qty, "vegetables", "Pune", true, false)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), p))
}

func TestDecrement(t *testing.T) {
	repo := NewProductRepository()
	seed(t, repo, "p-1", 10)
	ctx := context.Background()

	require.NoError(t, repo.Decrement(ctx, "p-1", 4))

	qty, err := repo.CurrentQuantity(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 6, qty)
}

func TestDecrement_Validation(t *testing.T) {
	repo := NewProductRepository()
	seed(t, repo, "p-1", 10)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Decrement(ctx, "p-1", 0), inventory.ErrInvalidAmount)
	assert.ErrorIs(t, repo.Decrement(ctx, "p-1", -3), inventory.ErrInvalidAmount)
	assert.ErrorIs(t, repo.Decrement(ctx, "p-1", 11), inventory.ErrInsufficientStock)
	assert.ErrorIs(t, repo.Decrement(ctx, "missing", 1), domain.ErrNotFound)

	// Failed decrements leave the quantity untouched.
	qty, err := repo.CurrentQuantity(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 10, qty)
}

// Many concurrent decrements against one product: the total taken never
// exceeds the starting stock and the quantity never goes negative.
func TestDecrement_Concurrent(t *testing.T) {
	repo := NewProductRepository()
	seed(t, repo, "p-1", 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	var succeeded sync.Map
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Decrement(ctx, "p-1", 1); err == nil {
				succeeded.Store(i, true)
			} else {
				assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	var wins int
	succeeded.Range(func(_, _ any) bool { wins++; return true })
	assert.Equal(t, 100, wins)

	qty, err := repo.CurrentQuantity(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestGet_ReturnsClone(t *testing.T) {
	repo := NewProductRepository()
	seed(t, repo, "p-1", 10)
	ctx := context.Background()

	p, err := repo.Get(ctx, "p-1")
	require.NoError(t, err)
	p.Quantity = 0

	again, err := repo.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 10, again.Quantity)
}

func TestSearch(t *testing.T) {
	repo := NewProductRepository()
	seed(t, repo, "p-1", 10)
	seed(t, repo, "p-2", 0)
	ctx := context.Background()

	byName, err := repo.Search(ctx, "toma")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	byLocation, err := repo.Search(ctx, "pune")
	require.NoError(t, err)
	assert.Len(t, byLocation, 1)

	none, err := repo.Search(ctx, "banana")
	require.NoError(t, err)
	assert.Empty(t, none)
}
