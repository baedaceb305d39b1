// Package order implements the order workflow: turning a cart into a
// persisted order while keeping inventory, pricing, and access rules
// consistent.
//
// # Components
//
// Workflow owns the mutating operations (Create, Update, Delete). Each
// runs as one all-or-nothing unit of work spanning the order row, its
// items, and the product stock writes. Any failure at any step rolls
// back the entire transaction.
//
// Query owns the read paths (List, Get), filtered by ownership and
// role.
//
// # Invariants
//
// After every committed transaction:
//   - order price equals the sum of quantity times snapshot unit price,
//     multiplied by the discount stored on the order
//   - the discount is 0.9 for orders placed by VIP users, 1.0 otherwise,
//     fixed at creation time
//   - every order has at least one item, and no decrement drives a
//     product's quantity negative
//   - a product drained to zero stock is marked sold out in the same
//     transaction
//
// # Error handling
//
// Failures surface as typed errors the API layer translates: order
// validation (ErrValidation), missing rows (storage.ErrNotFound),
// stock conflicts (inventory.ErrSoldOut, inventory.ErrInsufficientStock,
// storage.ErrInsufficientStock), and access denials (auth.ErrDenied).
// A stock conflict is a legitimate business outcome; nothing here
// retries.
package order
