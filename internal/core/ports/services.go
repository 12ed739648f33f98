package ports

import (
	"context"
	"time"

	"cantor/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims. IssuedAt feeds the
// requires-recent-login rule for account deletion.
type TokenClaims struct {
	UserID   uuid.UUID
	Email    string
	IssuedAt time.Time
}

// --- Service Ports (Business Logic) ---

// AuthService is the session/identity gate: it establishes which ledger is
// current and triggers the ledger load on sign-in.
type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	// SignOut discards the in-memory ledger. No persistence call is made.
	SignOut(ctx context.Context, userID uuid.UUID)
	// DeleteAccount removes the remote identity and ledger document. It
	// fails with AUTH_007 unless the session token was issued recently.
	DeleteAccount(ctx context.Context, userID uuid.UUID, tokenIssuedAt time.Time) error
}

// SignUpRequest holds validated input for account creation.
type SignUpRequest struct {
	Email    string
	Password string
	Fullname string
}

// AuthResult is returned by SignUp and SignIn.
type AuthResult struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// SettlementService validates and applies balance-affecting operations and
// durably records them. All operations on one ledger serialize.
type SettlementService interface {
	TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error)
	// Buy acquires amount units of code at the caller-supplied
	// home-currency rate per unit.
	Buy(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, code string, rate decimal.Decimal) (*domain.Transaction, error)
	// Sell gives up amount units of code at the caller-supplied rate.
	Sell(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, code string, rate decimal.Decimal) (*domain.Transaction, error)
	// Snapshot returns the current immutable ledger snapshot.
	Snapshot(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// WatchlistService mutates the ledger's watchlist collection. Lookups are
// by stable watchlist ID; a miss is an explicit WL_001, never a silent no-op.
type WatchlistService interface {
	// List returns the watchlists from the current ledger snapshot.
	List(ctx context.Context, userID uuid.UUID) ([]domain.Watchlist, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (*domain.Watchlist, error)
	Rename(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID, newName string) error
	Delete(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID) error
	// AddRate pins a rate snapshot; re-pinning the same code is a no-op.
	AddRate(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID, rate domain.Rate) error
	RemoveRate(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID, code string) error
}

// RateService serves rate snapshots: a cached current table and
// latest-wins historical series fetches.
type RateService interface {
	CurrentRates(ctx context.Context) (*domain.RateTable, error)
	// History fetches the series for charting. A newer call by the same
	// viewer supersedes that viewer's in-flight fetch, which then fails
	// with RATE_002; other viewers' fetches are unaffected.
	History(ctx context.Context, viewer, code string, from, to time.Time) ([]domain.RatePoint, error)
}
