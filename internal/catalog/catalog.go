// Package catalog exposes the product operations the order workflow
// and the API consume. Restocking and soft deletion live here; the
// order workflow only ever decrements.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

// Service manages the product catalog
type Service struct {
	store  storage.Store
	logger *slog.Logger
}

// NewService creates a catalog service backed by the given store
func NewService(store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create adds a product. Sale status is derived from the initial
// stock: zero quantity starts sold out.
func (s *Service) Create(ctx context.Context, name string, price float64, quantity int) (*storage.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("product name must not be empty")
	}
	if price < 0 {
		return nil, fmt.Errorf("product price must not be negative")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("product quantity must not be negative")
	}

	status := types.SaleStatusOnSale
	if quantity == 0 {
		status = types.SaleStatusSoldOut
	}
	product := &storage.Product{
		Name:       name,
		Price:      price,
		Quantity:   quantity,
		SaleStatus: status,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created", "product_id", product.ID, "name", name, "quantity", quantity)
	return product, nil
}

// Get returns a product by id, excluding soft-deleted rows
func (s *Service) Get(ctx context.Context, id int64) (*storage.Product, error) {
	return s.store.GetActiveProduct(ctx, id)
}

// List returns the catalog. Admins see everything; other actors only
// products currently on sale.
func (s *Service) List(ctx context.Context, actor types.Actor) ([]*storage.Product, error) {
	return s.store.ListProducts(ctx, !actor.IsAdmin())
}

// SetStock replaces a product's quantity. The sale status follows the
// new quantity in both directions: restocking a sold-out product puts
// it back on sale, setting stock to zero marks it sold out.
func (s *Service) SetStock(ctx context.Context, id int64, quantity int) (*storage.Product, error) {
	if err := s.store.SetStock(ctx, id, quantity); err != nil {
		return nil, err
	}
	s.logger.Info("product restocked", "product_id", id, "quantity", quantity)
	return s.store.GetActiveProduct(ctx, id)
}

// Delete soft-deletes a product. Existing order items keep their
// reference; the product just stops being orderable.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}
