package order

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dkim-labs/shopcore/internal/auth"
	"github.com/dkim-labs/shopcore/internal/inventory"
	"github.com/dkim-labs/shopcore/internal/pricing"
	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

// snapshotFetchLimit bounds the concurrent product lookups during
// order creation.
const snapshotFetchLimit = 4

// Workflow orchestrates the transactional order mutations. It is the
// only component that opens a unit of work.
type Workflow struct {
	store  storage.Store
	logger *slog.Logger
}

// NewWorkflow creates an order workflow backed by the given store
func NewWorkflow(store storage.Store, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{store: store, logger: logger}
}

// UpdatePatch carries the optional fields of an order update. When
// ProductIDs/Quantities are supplied the order's lines are replaced and
// its price recomputed with the discount stored at creation time.
type UpdatePatch struct {
	ProductIDs []int64
	Quantities []int
	Status     *string
}

// Create turns a cart into a persisted order. Stock decrements, the
// order row, and its items commit as one unit; any failure rolls back
// everything.
func (w *Workflow) Create(ctx context.Context, actor types.Actor, productIDs []int64, quantities []int) (*storage.Order, error) {
	if err := validateLines(productIDs, quantities); err != nil {
		return nil, err
	}
	if err := validateQuantityCap(actor, quantities); err != nil {
		return nil, err
	}

	// Product snapshots: prices and stock at one instant, fetched
	// before the write transaction. A miss aborts before any mutation.
	products, err := w.fetchSnapshots(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	// Reject the whole cart if any line is sold out or short on stock
	lines := make([]pricing.Line, len(products))
	for i, product := range products {
		if _, err := inventory.Reserve(product, quantities[i]); err != nil {
			return nil, err
		}
		lines[i] = pricing.Line{UnitPrice: product.Price, Quantity: quantities[i]}
	}

	discount := pricing.DiscountFor(actor.Role)
	price := pricing.Total(lines, discount)

	order := &storage.Order{
		UserID:   actor.ID,
		Price:    price,
		Discount: discount,
		Status:   types.OrderStatusPaymentComplete,
	}
	for i, product := range products {
		order.Items = append(order.Items, &storage.OrderItem{
			ProductID: product.ID,
			Quantity:  quantities[i],
		})
	}

	err = w.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		// Decrement in ascending product id order so concurrent carts
		// touching the same products acquire row locks consistently.
		items := make([]*storage.OrderItem, len(order.Items))
		copy(items, order.Items)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		for _, item := range items {
			remaining, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := tx.SetSoldOut(ctx, item.ProductID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("order creation failed", "user_id", actor.ID, "error", err)
		return nil, err
	}

	w.logger.Info("order created",
		"order_id", order.ID, "user_id", actor.ID,
		"price", order.Price, "discount", order.Discount, "lines", len(order.Items))
	return order, nil
}

// Update applies a patch to an existing order. New lines recompute the
// price with the original discount; the current role never changes it.
// Stock is not re-reserved for changed quantities.
func (w *Workflow) Update(ctx context.Context, actor types.Actor, orderID int64, patch UpdatePatch) (*storage.Order, error) {
	hasLines := patch.ProductIDs != nil || patch.Quantities != nil
	if hasLines {
		if err := validateLines(patch.ProductIDs, patch.Quantities); err != nil {
			return nil, err
		}
	}

	var status types.OrderStatus
	if patch.Status != nil {
		parsed, err := types.ParseOrderStatus(*patch.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		status = parsed
	}

	var updated *storage.Order
	err := w.store.WithTx(ctx, func(tx storage.Tx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := auth.CanAccess(actor, order.UserID); err != nil {
			return err
		}

		if hasLines {
			lines := make([]pricing.Line, len(patch.ProductIDs))
			items := make([]*storage.OrderItem, len(patch.ProductIDs))
			for i, productID := range patch.ProductIDs {
				product, err := tx.GetActiveProduct(ctx, productID)
				if err != nil {
					return err
				}
				lines[i] = pricing.Line{UnitPrice: product.Price, Quantity: patch.Quantities[i]}
				items[i] = &storage.OrderItem{ProductID: productID, Quantity: patch.Quantities[i]}
			}
			order.Price = pricing.Total(lines, order.Discount)
			if err := tx.ReplaceOrderItems(ctx, order.ID, items); err != nil {
				return err
			}
			order.Items = items
		}

		if patch.Status != nil {
			order.Status = status
		}

		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("order updated", "order_id", updated.ID, "user_id", actor.ID)
	return updated, nil
}

// Delete removes an order and all its items atomically. Inventory
// decrements are not reversed.
func (w *Workflow) Delete(ctx context.Context, actor types.Actor, orderID int64) error {
	err := w.store.WithTx(ctx, func(tx storage.Tx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := auth.CanAccess(actor, order.UserID); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	w.logger.Info("order deleted", "order_id", orderID, "user_id", actor.ID)
	return nil
}

// fetchSnapshots loads all product snapshots concurrently, preserving
// line order
func (w *Workflow) fetchSnapshots(ctx context.Context, productIDs []int64) ([]*storage.Product, error) {
	products := make([]*storage.Product, len(productIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotFetchLimit)
	for i, id := range productIDs {
		g.Go(func() error {
			product, err := w.store.GetActiveProduct(ctx, id)
			if err != nil {
				return fmt.Errorf("product %d: %w", id, err)
			}
			products[i] = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

func validateLines(productIDs []int64, quantities []int) error {
	if len(productIDs) == 0 {
		return fmt.Errorf("%w: order needs at least one line item", ErrValidation)
	}
	if len(productIDs) != len(quantities) {
		return fmt.Errorf("%w: %d products with %d quantities", ErrValidation, len(productIDs), len(quantities))
	}
	for i, qty := range quantities {
		if qty <= 0 {
			return fmt.Errorf("%w: quantity for product %d must be positive", ErrValidation, productIDs[i])
		}
	}
	return nil
}

// validateQuantityCap enforces the per-line limit for ordinary users.
// VIPs and admins are exempt.
func validateQuantityCap(actor types.Actor, quantities []int) error {
	if actor.Role == types.RoleVIP || actor.Role == types.RoleAdmin {
		return nil
	}
	for _, qty := range quantities {
		if qty > types.MaxQuantityPerLine {
			return fmt.Errorf("%w: at most %d units per product for non-VIP users", ErrValidation, types.MaxQuantityPerLine)
		}
	}
	return nil
}
