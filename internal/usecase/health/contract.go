package health

import "context"

// Pinger checks a store's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}
