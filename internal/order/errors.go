package order

import "errors"

// ErrValidation is returned for malformed order requests: mismatched
// line/quantity counts, non-positive quantities, the per-line cap for
// ordinary users, or an unrecognized status value.
var ErrValidation = errors.New("invalid order request")
