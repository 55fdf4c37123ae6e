// Package push is the best-effort delivery channel for notifications. The
// durable notification record is written before any dispatch; nothing in
// this package may fail a caller.
package push

import "context"

// Note is the displayable payload of a push.
type Note struct {
	Title string
	Body  string
	Data  map[string]string
}

// DeliveryResult reports per-token outcome. At-most-once: failed tokens are
// counted and logged, never retried.
type DeliveryResult struct {
	Attempted int
	Delivered int
	Failed    int
}

// Dispatcher sends a note to a set of device tokens. Implementations must
// swallow provider errors: a down provider is a delivery failure, not a
// system fault.
type Dispatcher interface {
	Deliver(ctx context.Context, note Note, tokens []string) DeliveryResult
}
