package ports

import (
	"context"
	"time"

	"cantor/internal/core/domain"

	"github.com/google/uuid"
)

// Account is the credential record behind a ledger: what the identity
// service knows about a user, separate from the ledger document itself.
type Account struct {
	ID           uuid.UUID
	Email        string
	Fullname     string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
}

// AccountRepository defines persistence operations for account credentials.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LedgerStore is the remote document store holding one ledger document per
// account plus an append-only transaction log.
//
// MergeWriteFields has partial-update semantics: only the named top-level
// fields are overwritten, everything else in the document is untouched.
// The transaction log is the single durable representation of history; the
// document itself never carries a history array.
type LedgerStore interface {
	// CreateLedger writes the initial document for a new account.
	CreateLedger(ctx context.Context, user *domain.User) error
	// ReadLedger loads the document and joins in the transaction log,
	// oldest first. Returns apperror STORE_001 when absent, STORE_002
	// when the document cannot be decoded.
	ReadLedger(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// MergeWriteFields overwrites only the named top-level fields.
	MergeWriteFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// AppendTransaction appends one entry to the transaction log.
	AppendTransaction(ctx context.Context, id uuid.UUID, txn domain.Transaction) error
	// DeleteLedger removes the document and its transaction log.
	DeleteLedger(ctx context.Context, id uuid.UUID) error
}

// RateSource fetches exchange-rate snapshots. Pure read, no state mutation.
type RateSource interface {
	// FetchCurrentRates returns the latest full mid-rate table.
	FetchCurrentRates(ctx context.Context) (*domain.RateTable, error)
	// FetchRateHistory returns the historical series for one code over a
	// closed date window, oldest first.
	FetchRateHistory(ctx context.Context, code string, from, to time.Time) ([]domain.RatePoint, error)
}

// RateCache caches the serialized current-rate table with a TTL.
type RateCache interface {
	Get(ctx context.Context) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, value []byte, ttl time.Duration) error
}
