package order

import (
	"context"

	"github.com/dkim-labs/shopcore/internal/auth"
	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

// Query serves the order read paths, filtered by ownership and role
type Query struct {
	store storage.Store
}

// NewQuery creates an order query service backed by the given store
func NewQuery(store storage.Store) *Query {
	return &Query{store: store}
}

// List returns all orders for admins and only the actor's own orders
// for everyone else, items included. It filters rather than denies.
func (q *Query) List(ctx context.Context, actor types.Actor) ([]*storage.Order, error) {
	if actor.IsAdmin() {
		return q.store.ListOrders(ctx)
	}
	return q.store.ListOrdersByUser(ctx, actor.ID)
}

// Get returns one order by id. Non-admin actors only see orders they
// own; anything else is a permission error, not an empty result.
func (q *Query) Get(ctx context.Context, actor types.Actor, id int64) (*storage.Order, error) {
	order, err := q.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanAccess(actor, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}
