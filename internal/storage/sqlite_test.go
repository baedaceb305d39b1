package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkim-labs/shopcore/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	// Use in-memory database for testing
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *SQLiteStore, name string, role types.Role) *User {
	t.Helper()
	user := &User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, store *SQLiteStore, name string, price float64, qty int) *Product {
	t.Helper()
	product := &Product{Name: name, Price: price, Quantity: qty}
	require.NoError(t, store.CreateProduct(context.Background(), product))
	return product
}

func TestNewSQLiteStore(t *testing.T) {
	store := setupTestDB(t)
	assert.NotNil(t, store.db)
}

func TestCreateUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := &User{Name: "kim", Email: "kim@example.com"}
	err := store.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.Greater(t, user.ID, int64(0))
	assert.Equal(t, types.RoleUser, user.Role) // default role

	// Duplicate email should fail
	duplicate := &User{Name: "other", Email: "kim@example.com"}
	err = store.CreateUser(ctx, duplicate)
	assert.Error(t, err) // unique constraint violation
}

func TestGetActiveUser_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetActiveUser(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProduct(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, store, "keyboard", 100, 10)
	assert.Greater(t, product.ID, int64(0))
	assert.Equal(t, types.SaleStatusOnSale, product.SaleStatus)

	retrieved, err := store.GetActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "keyboard", retrieved.Name)
	assert.Equal(t, 100.0, retrieved.Price)
	assert.Equal(t, 10, retrieved.Quantity)
}

func TestGetActiveProduct_SoftDeleted(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, store, "keyboard", 100, 10)
	require.NoError(t, store.SoftDeleteProduct(ctx, product.ID))

	_, err := store.GetActiveProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProducts(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	seedProduct(t, store, "keyboard", 100, 10)
	soldOut := seedProduct(t, store, "mouse", 50, 1)
	deleted := seedProduct(t, store, "cable", 5, 3)

	require.NoError(t, store.SetSoldOut(ctx, soldOut.ID))
	require.NoError(t, store.SoftDeleteProduct(ctx, deleted.ID))

	all, err := store.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2) // deleted excluded

	onSale, err := store.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, onSale, 1)
	assert.Equal(t, "keyboard", onSale[0].Name)
}

func TestDecrementStock(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, store, "keyboard", 100, 10)

	remaining, err := store.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)

	remaining, err = store.DecrementStock(ctx, product.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestDecrementStock_Insufficient(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, store, "keyboard", 100, 2)

	_, err := store.DecrementStock(ctx, product.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Quantity untouched
	retrieved, err := store.GetActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retrieved.Quantity)
}

func TestDecrementStock_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.DecrementStock(context.Background(), 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStock_FlipsSaleStatus(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, store, "keyboard", 100, 5)

	// Draining to zero marks the product sold out
	require.NoError(t, store.SetStock(ctx, product.ID, 0))
	retrieved, err := store.GetActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SaleStatusSoldOut, retrieved.SaleStatus)
	assert.Equal(t, 0, retrieved.Quantity)

	// Restocking puts it back on sale
	require.NoError(t, store.SetStock(ctx, product.ID, 4))
	retrieved, err = store.GetActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SaleStatusOnSale, retrieved.SaleStatus)
	assert.Equal(t, 4, retrieved.Quantity)
}

func TestCreateOrder_WithItems(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, store, "kim", types.RoleUser)
	product := seedProduct(t, store, "keyboard", 100, 10)

	order := &Order{
		UserID:   user.ID,
		Price:    200,
		Discount: 1.0,
		Items: []*OrderItem{
			{ProductID: product.ID, Quantity: 2},
		},
	}
	err := store.CreateOrder(ctx, order)
	require.NoError(t, err)
	assert.Greater(t, order.ID, int64(0))
	assert.Equal(t, types.OrderStatusPaymentComplete, order.Status)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	retrieved, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, retrieved.Price)
	assert.Equal(t, 1.0, retrieved.Discount)
	require.Len(t, retrieved.Items, 1)
	assert.Equal(t, 2, retrieved.Items[0].Quantity)
}

func TestGetOrder_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetOrder(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersByUser(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleUser)
	bob := seedUser(t, store, "bob", types.RoleUser)
	product := seedProduct(t, store, "keyboard", 100, 10)

	for _, userID := range []int64{alice.ID, alice.ID, bob.ID} {
		order := &Order{
			UserID:   userID,
			Price:    100,
			Discount: 1.0,
			Items:    []*OrderItem{{ProductID: product.ID, Quantity: 1}},
		}
		require.NoError(t, store.CreateOrder(ctx, order))
	}

	all, err := store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := store.ListOrdersByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, order := range mine {
		assert.Equal(t, alice.ID, order.UserID)
		assert.Len(t, order.Items, 1) // items loaded
	}
}

func TestReplaceOrderItems(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, store, "kim", types.RoleUser)
	first := seedProduct(t, store, "keyboard", 100, 10)
	second := seedProduct(t, store, "mouse", 50, 10)

	order := &Order{
		UserID:   user.ID,
		Price:    100,
		Discount: 1.0,
		Items:    []*OrderItem{{ProductID: first.ID, Quantity: 1}},
	}
	require.NoError(t, store.CreateOrder(ctx, order))

	err := store.ReplaceOrderItems(ctx, order.ID, []*OrderItem{
		{ProductID: second.ID, Quantity: 3},
	})
	require.NoError(t, err)

	retrieved, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, retrieved.Items, 1)
	assert.Equal(t, second.ID, retrieved.Items[0].ProductID)
	assert.Equal(t, 3, retrieved.Items[0].Quantity)
}

func TestDeleteOrder_RemovesItems(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, store, "kim", types.RoleUser)
	product := seedProduct(t, store, "keyboard", 100, 10)

	order := &Order{
		UserID:   user.ID,
		Price:    100,
		Discount: 1.0,
		Items:    []*OrderItem{{ProductID: product.ID, Quantity: 1}},
	}
	require.NoError(t, store.CreateOrder(ctx, order))

	require.NoError(t, store.DeleteOrder(ctx, order.ID))

	_, err := store.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM order_items WHERE order_id = ?", order.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, store, "kim", types.RoleUser)
	product := seedProduct(t, store, "keyboard", 100, 10)

	err := store.WithTx(ctx, func(tx Tx) error {
		order := &Order{
			UserID:   user.ID,
			Price:    100,
			Discount: 1.0,
			Items:    []*OrderItem{{ProductID: product.ID, Quantity: 1}},
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if _, err := tx.DecrementStock(ctx, product.ID, 1); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	// Nothing committed
	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	retrieved, err := store.GetActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, retrieved.Quantity)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, store, "keyboard", 100, 10)

	assert.Panics(t, func() {
		_ = store.WithTx(ctx, func(tx Tx) error {
			if _, err := tx.DecrementStock(ctx, product.ID, 5); err != nil {
				return err
			}
			panic("boom")
		})
	})

	retrieved, err := store.GetActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, retrieved.Quantity)
}

func TestWithTx_Commit(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, store, "keyboard", 100, 10)

	err := store.WithTx(ctx, func(tx Tx) error {
		_, err := tx.DecrementStock(ctx, product.ID, 4)
		return err
	})
	require.NoError(t, err)

	retrieved, err := store.GetActiveProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, retrieved.Quantity)
}
