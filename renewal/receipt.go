package renewal

import (
	"context"
	"time"

	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
)

// =============================================================================
// RECEIPT - Issued once per committed renewal
// =============================================================================

// VehicleSnapshot is the vehicle as it was when the receipt was issued.
type VehicleSnapshot struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Fuel  string `json:"fuel_type"`
}

type Receipt struct {
	ID             string                `json:"id"`
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
	Vehicle        VehicleSnapshot       `json:"vehicle"`
	OldDueDate     generic.PolicyDate    `json:"old_due_date"`
	NewDueDate     generic.PolicyDate    `json:"new_due_date"`
	Bill           billing.BillBreakdown `json:"bill"`
	Method         billing.Method        `json:"method"`
	Promo          billing.Promo         `json:"promo"`
	IssuedAt       time.Time             `json:"issued_at"`
}

// =============================================================================
// RECEIPT STORE - Append-only
// =============================================================================

// ReceiptStore persists issued receipts. There is no update or delete:
// a receipt records a payment that happened.
//
// Implementations:
//   - store/memory: in-memory, for tests and the CLI
//   - store/sqlite: SQLite, for the server
type ReceiptStore interface {
	// Append fails with generic.ErrDuplicateIdempotencyKey when the key
	// (if non-empty) or the receipt ID was already recorded.
	Append(ctx context.Context, r Receipt) error

	// Get fails with generic.ErrReceiptNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*Receipt, error)

	// FindByIdempotencyKey returns nil, nil when the key is unknown.
	FindByIdempotencyKey(ctx context.Context, key string) (*Receipt, error)

	// List returns receipts newest first.
	List(ctx context.Context, limit int) ([]Receipt, error)
}
