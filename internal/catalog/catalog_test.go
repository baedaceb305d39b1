package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

func setupService(t *testing.T) (*Service, *storage.SQLiteStore) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger), store
}

func TestCreate(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	product, err := service.Create(ctx, "keyboard", 100, 10)
	require.NoError(t, err)
	assert.Greater(t, product.ID, int64(0))
	assert.Equal(t, types.SaleStatusOnSale, product.SaleStatus)

	// Zero initial stock starts sold out
	empty, err := service.Create(ctx, "mouse", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, types.SaleStatusSoldOut, empty.SaleStatus)
}

func TestCreate_Invalid(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, "", 100, 10)
	assert.Error(t, err)

	_, err = service.Create(ctx, "keyboard", -1, 10)
	assert.Error(t, err)

	_, err = service.Create(ctx, "keyboard", 100, -1)
	assert.Error(t, err)
}

func TestList_RoleFiltered(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	onSale, err := service.Create(ctx, "keyboard", 100, 10)
	require.NoError(t, err)
	_, err = service.Create(ctx, "mouse", 50, 0) // sold out
	require.NoError(t, err)

	admin := types.Actor{ID: 1, Role: types.RoleAdmin}
	user := types.Actor{ID: 2, Role: types.RoleUser}

	all, err := service.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := service.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, onSale.ID, visible[0].ID)
}

func TestSetStock_Restock(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	product, err := service.Create(ctx, "keyboard", 100, 0)
	require.NoError(t, err)
	assert.Equal(t, types.SaleStatusSoldOut, product.SaleStatus)

	restocked, err := service.SetStock(ctx, product.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, restocked.Quantity)
	assert.Equal(t, types.SaleStatusOnSale, restocked.SaleStatus)
}

func TestDelete(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	product, err := service.Create(ctx, "keyboard", 100, 10)
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, product.ID))

	_, err = service.Get(ctx, product.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
