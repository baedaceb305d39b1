package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkim-labs/shopcore/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist or is soft-deleted
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock is returned when a conditional stock decrement
	// finds fewer units than requested
	ErrInsufficientStock = errors.New("insufficient stock")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer connection. Transactions from concurrent requests
	// queue here, which is what serializes the check-then-decrement
	// sequence on product stock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics; the
// handle is released on every exit path.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// User operations

// createUserWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) createUserWithQuerier(ctx context.Context, q querier, user *User) error {
	query := `
		INSERT INTO users (name, email, role, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	result, err := q.ExecContext(ctx, query,
		user.Name, user.Email, string(user.Role), user.IsDeleted, now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	return s.createUserWithQuerier(ctx, s.querier(), user)
}

// getActiveUserWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getActiveUserWithQuerier(ctx context.Context, q querier, id int64) (*User, error) {
	query := `
		SELECT id, name, email, role, is_deleted, created_at, updated_at
		FROM users
		WHERE id = ? AND is_deleted = 0
	`
	var user User
	var role string
	err := q.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &role,
		&user.IsDeleted, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = types.Role(role)
	return &user, nil
}

func (s *SQLiteStore) GetActiveUser(ctx context.Context, id int64) (*User, error) {
	return s.getActiveUserWithQuerier(ctx, s.querier(), id)
}

// Product operations

// createProductWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) createProductWithQuerier(ctx context.Context, q querier, product *Product) error {
	query := `
		INSERT INTO products (name, price, quantity, sale_status, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if product.SaleStatus == "" {
		product.SaleStatus = types.SaleStatusOnSale
	}
	result, err := q.ExecContext(ctx, query,
		product.Name, product.Price, product.Quantity,
		string(product.SaleStatus), product.IsDeleted, now, now)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, product *Product) error {
	return s.createProductWithQuerier(ctx, s.querier(), product)
}

// getActiveProductWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getActiveProductWithQuerier(ctx context.Context, q querier, id int64) (*Product, error) {
	query := `
		SELECT id, name, price, quantity, sale_status, is_deleted, created_at, updated_at
		FROM products
		WHERE id = ? AND is_deleted = 0
	`
	var product Product
	var status string
	err := q.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Price, &product.Quantity,
		&status, &product.IsDeleted, &product.CreatedAt, &product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	product.SaleStatus = types.SaleStatus(status)
	return &product, nil
}

func (s *SQLiteStore) GetActiveProduct(ctx context.Context, id int64) (*Product, error) {
	return s.getActiveProductWithQuerier(ctx, s.querier(), id)
}

// listProductsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listProductsWithQuerier(ctx context.Context, q querier, onSaleOnly bool) ([]*Product, error) {
	query := `
		SELECT id, name, price, quantity, sale_status, is_deleted, created_at, updated_at
		FROM products
		WHERE is_deleted = 0
	`
	args := []interface{}{}
	if onSaleOnly {
		query += " AND sale_status = ?"
		args = append(args, string(types.SaleStatusOnSale))
	}
	query += " ORDER BY id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var product Product
		var status string
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Price, &product.Quantity,
			&status, &product.IsDeleted, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		product.SaleStatus = types.SaleStatus(status)
		products = append(products, &product)
	}
	return products, rows.Err()
}

func (s *SQLiteStore) ListProducts(ctx context.Context, onSaleOnly bool) ([]*Product, error) {
	return s.listProductsWithQuerier(ctx, s.querier(), onSaleOnly)
}

// decrementStockWithQuerier atomically decrements stock only if enough
// units remain, returning the post-decrement quantity. A concurrent
// order that drained the stock first makes the conditional UPDATE match
// zero rows, so overselling cannot drive quantity negative.
func (s *SQLiteStore) decrementStockWithQuerier(ctx context.Context, q querier, productID int64, qty int) (int, error) {
	query := `
		UPDATE products
		SET quantity = quantity - ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0 AND quantity >= ?
		RETURNING quantity
	`
	var remaining int
	err := q.QueryRowContext(ctx, query, qty, time.Now(), productID, qty).Scan(&remaining)
	if err == sql.ErrNoRows {
		// Distinguish a missing product from a stock shortfall
		if _, getErr := s.getActiveProductWithQuerier(ctx, q, productID); getErr != nil {
			return 0, getErr
		}
		return 0, ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement stock for product %d: %w", productID, err)
	}
	return remaining, nil
}

func (s *SQLiteStore) DecrementStock(ctx context.Context, productID int64, qty int) (int, error) {
	return s.decrementStockWithQuerier(ctx, s.querier(), productID, qty)
}

// setSoldOutWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) setSoldOutWithQuerier(ctx context.Context, q querier, productID int64) error {
	query := `
		UPDATE products
		SET sale_status = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`
	result, err := q.ExecContext(ctx, query, string(types.SaleStatusSoldOut), time.Now(), productID)
	if err != nil {
		return fmt.Errorf("failed to mark product %d sold out: %w", productID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SetSoldOut(ctx context.Context, productID int64) error {
	return s.setSoldOutWithQuerier(ctx, s.querier(), productID)
}

// setStockWithQuerier replaces a product's quantity and keeps the sale
// status coupled to it: zero stock means sold out, anything else puts
// the product back on sale. This is the catalog-side restock path.
func (s *SQLiteStore) setStockWithQuerier(ctx context.Context, q querier, productID int64, qty int) error {
	if qty < 0 {
		return fmt.Errorf("stock quantity must not be negative: %d", qty)
	}
	query := `
		UPDATE products
		SET quantity = ?,
		    sale_status = CASE WHEN ? = 0 THEN ? ELSE ? END,
		    updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`
	result, err := q.ExecContext(ctx, query,
		qty, qty, string(types.SaleStatusSoldOut), string(types.SaleStatusOnSale),
		time.Now(), productID)
	if err != nil {
		return fmt.Errorf("failed to set stock for product %d: %w", productID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SetStock(ctx context.Context, productID int64, qty int) error {
	return s.setStockWithQuerier(ctx, s.querier(), productID, qty)
}

// softDeleteProductWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) softDeleteProductWithQuerier(ctx context.Context, q querier, productID int64) error {
	query := `
		UPDATE products
		SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`
	result, err := q.ExecContext(ctx, query, time.Now(), productID)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", productID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SoftDeleteProduct(ctx context.Context, productID int64) error {
	return s.softDeleteProductWithQuerier(ctx, s.querier(), productID)
}

// Order operations

// createOrderWithQuerier inserts the order row and all its items
func (s *SQLiteStore) createOrderWithQuerier(ctx context.Context, q querier, order *Order) error {
	query := `
		INSERT INTO orders (user_id, price, discount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if order.Status == "" {
		order.Status = types.OrderStatusPaymentComplete
	}
	result, err := q.ExecContext(ctx, query,
		order.UserID, order.Price, order.Discount, string(order.Status), now, now)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = id
	order.CreatedAt = now
	order.UpdatedAt = now

	for _, item := range order.Items {
		item.OrderID = id
		if err := s.insertOrderItemWithQuerier(ctx, q, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateOrder(ctx context.Context, order *Order) error {
	return s.createOrderWithQuerier(ctx, s.querier(), order)
}

func (s *SQLiteStore) insertOrderItemWithQuerier(ctx context.Context, q querier, item *OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity)
		VALUES (?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query, item.OrderID, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = id
	return nil
}

// listOrderItemsWithQuerier loads all items for one order
func (s *SQLiteStore) listOrderItemsWithQuerier(ctx context.Context, q querier, orderID int64) ([]*OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity
		FROM order_items
		WHERE order_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []*OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// getOrderWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getOrderWithQuerier(ctx context.Context, q querier, id int64) (*Order, error) {
	query := `
		SELECT id, user_id, price, discount, status, created_at, updated_at
		FROM orders
		WHERE id = ?
	`
	var order Order
	var status string
	err := q.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.UserID, &order.Price, &order.Discount,
		&status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	order.Status = types.OrderStatus(status)

	items, err := s.listOrderItemsWithQuerier(ctx, q, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (s *SQLiteStore) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.getOrderWithQuerier(ctx, s.querier(), id)
}

// listOrdersWithQuerier loads orders, optionally filtered by owner.
// Order rows are fully drained before item queries run because the
// store keeps a single connection.
func (s *SQLiteStore) listOrdersWithQuerier(ctx context.Context, q querier, userID *int64) ([]*Order, error) {
	query := `
		SELECT id, user_id, price, discount, status, created_at, updated_at
		FROM orders
	`
	args := []interface{}{}
	if userID != nil {
		query += " WHERE user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []*Order
	for rows.Next() {
		var order Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.Price, &order.Discount,
			&status, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, err
		}
		order.Status = types.OrderStatus(status)
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, order := range orders {
		items, err := s.listOrderItemsWithQuerier(ctx, q, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

func (s *SQLiteStore) ListOrders(ctx context.Context) ([]*Order, error) {
	return s.listOrdersWithQuerier(ctx, s.querier(), nil)
}

func (s *SQLiteStore) ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error) {
	return s.listOrdersWithQuerier(ctx, s.querier(), &userID)
}

// updateOrderWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) updateOrderWithQuerier(ctx context.Context, q querier, order *Order) error {
	query := `
		UPDATE orders
		SET price = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, order.Price, string(order.Status), now, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	order.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateOrder(ctx context.Context, order *Order) error {
	return s.updateOrderWithQuerier(ctx, s.querier(), order)
}

// replaceOrderItemsWithQuerier swaps an order's items for a new set
func (s *SQLiteStore) replaceOrderItemsWithQuerier(ctx context.Context, q querier, orderID int64, items []*OrderItem) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("failed to clear order items: %w", err)
	}
	for _, item := range items {
		item.OrderID = orderID
		if err := s.insertOrderItemWithQuerier(ctx, q, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ReplaceOrderItems(ctx context.Context, orderID int64, items []*OrderItem) error {
	return s.replaceOrderItemsWithQuerier(ctx, s.querier(), orderID, items)
}

// deleteOrderWithQuerier removes the order and its items in one shot.
// Items are deleted explicitly even though the FK cascades.
func (s *SQLiteStore) deleteOrderWithQuerier(ctx context.Context, q querier, id int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	result, err := q.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteOrder(ctx context.Context, id int64) error {
	return s.deleteOrderWithQuerier(ctx, s.querier(), id)
}

// Transaction method forwarding

func (t *sqliteTx) CreateUser(ctx context.Context, user *User) error {
	return t.store.createUserWithQuerier(ctx, t.querier(), user)
}

func (t *sqliteTx) GetActiveUser(ctx context.Context, id int64) (*User, error) {
	return t.store.getActiveUserWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) CreateProduct(ctx context.Context, product *Product) error {
	return t.store.createProductWithQuerier(ctx, t.querier(), product)
}

func (t *sqliteTx) GetActiveProduct(ctx context.Context, id int64) (*Product, error) {
	return t.store.getActiveProductWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListProducts(ctx context.Context, onSaleOnly bool) ([]*Product, error) {
	return t.store.listProductsWithQuerier(ctx, t.querier(), onSaleOnly)
}

func (t *sqliteTx) DecrementStock(ctx context.Context, productID int64, qty int) (int, error) {
	return t.store.decrementStockWithQuerier(ctx, t.querier(), productID, qty)
}

func (t *sqliteTx) SetSoldOut(ctx context.Context, productID int64) error {
	return t.store.setSoldOutWithQuerier(ctx, t.querier(), productID)
}

func (t *sqliteTx) SetStock(ctx context.Context, productID int64, qty int) error {
	return t.store.setStockWithQuerier(ctx, t.querier(), productID, qty)
}

func (t *sqliteTx) SoftDeleteProduct(ctx context.Context, productID int64) error {
	return t.store.softDeleteProductWithQuerier(ctx, t.querier(), productID)
}

func (t *sqliteTx) CreateOrder(ctx context.Context, order *Order) error {
	return t.store.createOrderWithQuerier(ctx, t.querier(), order)
}

func (t *sqliteTx) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return t.store.getOrderWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListOrders(ctx context.Context) ([]*Order, error) {
	return t.store.listOrdersWithQuerier(ctx, t.querier(), nil)
}

func (t *sqliteTx) ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error) {
	return t.store.listOrdersWithQuerier(ctx, t.querier(), &userID)
}

func (t *sqliteTx) UpdateOrder(ctx context.Context, order *Order) error {
	return t.store.updateOrderWithQuerier(ctx, t.querier(), order)
}

func (t *sqliteTx) ReplaceOrderItems(ctx context.Context, orderID int64, items []*OrderItem) error {
	return t.store.replaceOrderItemsWithQuerier(ctx, t.querier(), orderID, items)
}

func (t *sqliteTx) DeleteOrder(ctx context.Context, id int64) error {
	return t.store.deleteOrderWithQuerier(ctx, t.querier(), id)
}
