/*
Package sqlite provides a SQLite-backed renewal.ReceiptStore.

PURPOSE:
  Keeps the receipt ledger of committed renewals across server restarts.
  Only receipts are stored: vehicles and policies are owned by the caller
  and travel with each request.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the receipts table
  - A receipt records a payment that happened; corrections are new receipts

KEY TABLE:
  receipts: one row per committed renewal. Money columns are decimal
            strings so values round-trip exactly.

INDEXES:
  - receipts.id primary key
  - idx_receipts_idempotency: UNIQUE, enforces retry safety
  - idx_receipts_issued_at:   newest-first listing

CONCURRENCY:
  Uses sync.RWMutex around the connection; SQLite allows one writer.

WAL MODE:
  Opened with WAL journaling so readers do not block the writer.

USAGE:
  store, err := sqlite.New("./data/renewals.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  wf := renewal.New(insurance.DefaultTariff(), billing.DefaultRates(), store)

SEE ALSO:
  - renewal/receipt.go: ReceiptStore interface
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/renewal"
)

// Store implements renewal.ReceiptStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ renewal.ReceiptStore = (*Store)(nil)

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		idempotency_key TEXT,
		vehicle_make TEXT NOT NULL,
		vehicle_model TEXT NOT NULL,
		vehicle_year INTEGER NOT NULL,
		fuel_type TEXT NOT NULL,
		old_due_date TEXT NOT NULL,
		new_due_date TEXT NOT NULL,
		method TEXT NOT NULL,
		promo TEXT NOT NULL DEFAULT '',
		base_premium TEXT NOT NULL,
		fine TEXT NOT NULL,
		discount TEXT NOT NULL,
		convenience_fee TEXT NOT NULL,
		emi_interest TEXT NOT NULL,
		gst TEXT NOT NULL,
		total TEXT NOT NULL,
		issued_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_receipts_idempotency
		ON receipts(idempotency_key) WHERE idempotency_key IS NOT NULL;

	CREATE INDEX IF NOT EXISTS idx_receipts_issued_at
		ON receipts(issued_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECEIPT STORE (renewal.ReceiptStore interface)
// =============================================================================

// Append records a receipt.
func (s *Store) Append(ctx context.Context, r renewal.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	method, err := r.Method.MarshalText()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO receipts
		(id, idempotency_key, vehicle_make, vehicle_model, vehicle_year, fuel_type,
		 old_due_date, new_due_date, method, promo,
		 base_premium, fine, discount, convenience_fee, emi_interest, gst, total, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		r.ID,
		nullString(r.IdempotencyKey),
		r.Vehicle.Make,
		r.Vehicle.Model,
		r.Vehicle.Year,
		r.Vehicle.Fuel,
		r.OldDueDate.ISO(),
		r.NewDueDate.ISO(),
		string(method),
		string(r.Promo),
		r.Bill.BasePremium.Value.String(),
		r.Bill.Fine.Value.String(),
		r.Bill.Discount.Value.String(),
		r.Bill.ConvenienceFee.Value.String(),
		r.Bill.EMIInterest.Value.String(),
		r.Bill.GST.Value.String(),
		r.Bill.Total.Value.String(),
		r.IssuedAt.UTC().Format(issuedAtLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append receipt: %w", err)
	}
	return nil
}

// issuedAtLayout is fixed width so text order matches time order.
const issuedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectReceipt = `
	SELECT id, idempotency_key, vehicle_make, vehicle_model, vehicle_year, fuel_type,
	       old_due_date, new_due_date, method, promo,
	       base_premium, fine, discount, convenience_fee, emi_interest, gst, total, issued_at
	FROM receipts
`

// Get returns one receipt by ID.
func (s *Store) Get(ctx context.Context, id string) (*renewal.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanReceipt(s.db.QueryRowContext(ctx, selectReceipt+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrReceiptNotFound
	}
	return r, err
}

// FindByIdempotencyKey returns nil, nil for unknown keys.
func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*renewal.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanReceipt(s.db.QueryRowContext(ctx, selectReceipt+" WHERE idempotency_key = ?", key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// List returns receipts newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]renewal.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectReceipt + " ORDER BY issued_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []renewal.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *r)
	}
	return receipts, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (*renewal.Receipt, error) {
	var (
		r                                      renewal.Receipt
		idempotencyKey                         sql.NullString
		oldDue, newDue, method, promo          string
		premium, fine, discount, fee, interest string
		gst, total, issuedAt                   string
	)
	err := row.Scan(
		&r.ID, &idempotencyKey,
		&r.Vehicle.Make, &r.Vehicle.Model, &r.Vehicle.Year, &r.Vehicle.Fuel,
		&oldDue, &newDue, &method, &promo,
		&premium, &fine, &discount, &fee, &interest, &gst, &total, &issuedAt,
	)
	if err != nil {
		return nil, err
	}

	r.IdempotencyKey = idempotencyKey.String
	if r.OldDueDate, err = generic.ParsePolicyDate(oldDue); err != nil {
		return nil, fmt.Errorf("receipt %s old_due_date: %w", r.ID, err)
	}
	if r.NewDueDate, err = generic.ParsePolicyDate(newDue); err != nil {
		return nil, fmt.Errorf("receipt %s new_due_date: %w", r.ID, err)
	}
	if r.Method, err = billing.ParseMethodCode(method); err != nil {
		return nil, fmt.Errorf("receipt %s method: %w", r.ID, err)
	}
	r.Promo = billing.ParsePromo(promo)
	if r.IssuedAt, err = time.Parse(time.RFC3339Nano, issuedAt); err != nil {
		return nil, fmt.Errorf("receipt %s issued_at: %w", r.ID, err)
	}

	amounts := []struct {
		dst *generic.Amount
		src string
	}{
		{&r.Bill.BasePremium, premium},
		{&r.Bill.Fine, fine},
		{&r.Bill.Discount, discount},
		{&r.Bill.ConvenienceFee, fee},
		{&r.Bill.EMIInterest, interest},
		{&r.Bill.GST, gst},
		{&r.Bill.Total, total},
	}
	for _, a := range amounts {
		if *a.dst, err = generic.ParseAmount(a.src); err != nil {
			return nil, fmt.Errorf("receipt %s amount %q: %w", r.ID, a.src, err)
		}
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
