package storage

import (
	"context"
	"time"

	"github.com/dkim-labs/shopcore/pkg/types"
)

// Queries defines the data operations available both on the root store
// and inside a transaction.
type Queries interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetActiveUser(ctx context.Context, id int64) (*User, error)

	// Product operations
	CreateProduct(ctx context.Context, product *Product) error
	GetActiveProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, onSaleOnly bool) ([]*Product, error)
	DecrementStock(ctx context.Context, productID int64, qty int) (remaining int, err error)
	SetSoldOut(ctx context.Context, productID int64) error
	SetStock(ctx context.Context, productID int64, qty int) error
	SoftDeleteProduct(ctx context.Context, productID int64) error

	// Order operations
	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error)
	UpdateOrder(ctx context.Context, order *Order) error
	ReplaceOrderItems(ctx context.Context, orderID int64, items []*OrderItem) error
	DeleteOrder(ctx context.Context, id int64) error
}

// Store is the root persistence interface
type Store interface {
	Queries

	// WithTx runs fn inside a transaction, committing on success and
	// rolling back on error or panic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Queries // Embed Queries for transaction operations
}

// User represents a shop account. Credentials live with the
// authentication collaborator; only identity and role are kept here.
type User struct {
	ID        int64
	Name      string
	Email     string
	Role      types.Role
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product represents a catalog entry with live stock
type Product struct {
	ID         int64
	Name       string
	Price      float64
	Quantity   int
	SaleStatus types.SaleStatus
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Order represents a persisted order with its line items
type Order struct {
	ID        int64
	UserID    int64
	Price     float64
	Discount  float64 // multiplier applied at creation, immutable afterwards
	Status    types.OrderStatus
	Items     []*OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem represents one line of an order. Its lifetime is bound to
// the owning order: created and deleted in the same transaction.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
}
