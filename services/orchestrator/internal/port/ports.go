// Package port defines the outbound contracts the lending saga depends on.
// The orchestrator only ever talks to the three resource services through
// these interfaces; the HTTP adapters live in internal/clients.
package port

import "context"

type Availability struct {
	BookID      string
	Count       int32
	IsAvailable bool
}

type Loan struct {
	ID     string
	UserID string
	BookID string
	Status string
	// AlreadyReturned is true when a mark-returned call was a replay of an
	// earlier return. The saga uses it to skip the inventory credit.
	AlreadyReturned bool
}

// Identity confirms user existence against the user service.
type Identity interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Inventory reads and atomically adjusts available-copy counts. Atomicity
// under concurrent adjusts is the inventory service's contract, never the
// caller's read-then-act.
type Inventory interface {
	GetAvailability(ctx context.Context, bookID string) (Availability, error)
	AdjustCopies(ctx context.Context, bookID string, delta int32) (int32, error)
}

// Loans creates, closes and voids loan records.
type Loans interface {
	CreateTransaction(ctx context.Context, userID, bookID string) (Loan, error)
	MarkReturned(ctx context.Context, transactionID string) (Loan, error)
	VoidTransaction(ctx context.Context, transactionID string) error
}

// Publisher is satisfied by pkg/mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}
