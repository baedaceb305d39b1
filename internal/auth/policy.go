// Package auth centralizes the access decision for order resources.
// Every access path calls CanAccess instead of re-implementing the
// role comparison.
package auth

import (
	"errors"

	"github.com/dkim-labs/shopcore/pkg/types"
)

// ErrDenied is returned when an actor lacks permission for the
// requested action on a resource.
var ErrDenied = errors.New("permission denied")

// CanAccess decides whether the actor may read, update, or delete a
// resource owned by ownerID. Admins may act on anything; everyone else
// only on what they own. The rule is uniform across actions.
func CanAccess(actor types.Actor, ownerID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.ID == ownerID {
		return nil
	}
	return ErrDenied
}
