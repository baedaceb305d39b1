// Package storage provides SQLite-based persistence for the shop.
//
// The storage layer manages:
//   - User records (identity and role; credentials live elsewhere)
//   - Product catalog rows with live stock and sale status
//   - Orders and their line items
//
// # Database Schema
//
// Tables:
//   - users: account identity, role, soft-delete flag
//   - products: name, price, quantity, sale status, soft-delete flag
//   - orders: total price, discount multiplier, status, owning user
//   - order_items: per-line quantity, referencing orders and products
//
// Order items have foreign keys to both orders and products; deleting
// an order cascades to its items.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("shopcore.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	product, err := store.GetActiveProduct(ctx, productID)
//
// # Transactions
//
// Mutations that span several rows run inside WithTx, which commits
// when the callback returns nil and rolls back on error or panic:
//
//	err := store.WithTx(ctx, func(tx storage.Tx) error {
//	    if err := tx.CreateOrder(ctx, order); err != nil {
//	        return err
//	    }
//	    _, err := tx.DecrementStock(ctx, productID, qty)
//	    return err
//	})
//
// # Stock Serialization
//
// DecrementStock is a conditional UPDATE (quantity >= requested) that
// returns the post-decrement quantity. Combined with the single writer
// connection this serializes concurrent decrements of the same product
// row, so stock can never go negative even when two orders race for
// the last units.
//
// # Build Modes
//
// Two SQLite drivers are supported via build tags: mattn/go-sqlite3
// (CGO) and modernc.org/sqlite (pure Go). See build_cgo.go and
// build_purego.go.
package storage
