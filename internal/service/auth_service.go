package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"cantor/internal/core/domain"
	"cantor/internal/core/ports"
	"cantor/internal/session"
	"cantor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthServiceImpl implements ports.AuthService: the session/identity gate.
// It owns the SignedOut -> Authenticating -> SignedIn transitions through
// the session registry and triggers the ledger load on sign-in.
type AuthServiceImpl struct {
	accounts ports.AccountRepository
	store    ports.LedgerStore
	sessions *session.Registry
	hashSvc  ports.HashService
	tokenSvc ports.TokenService

	passwordSignInEnabled bool
	recentLoginWindow     time.Duration
	log                   zerolog.Logger
}

// AuthServiceParams bundles the dependencies of NewAuthService.
type AuthServiceParams struct {
	Accounts ports.AccountRepository
	Store    ports.LedgerStore
	Sessions *session.Registry
	HashSvc  ports.HashService
	TokenSvc ports.TokenService

	PasswordSignInEnabled bool
	RecentLoginWindow     time.Duration
	Logger                zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(p AuthServiceParams) *AuthServiceImpl {
	return &AuthServiceImpl{
		accounts:              p.Accounts,
		store:                 p.Store,
		sessions:              p.Sessions,
		hashSvc:               p.HashSvc,
		tokenSvc:              p.TokenSvc,
		passwordSignInEnabled: p.PasswordSignInEnabled,
		recentLoginWindow:     p.RecentLoginWindow,
		log:                   p.Logger,
	}
}

// SignUp creates a new identity and a fresh ledger document, then signs the
// user in. The new ledger starts with a zero home-currency balance, empty
// history and the default watchlist.
func (s *AuthServiceImpl) SignUp(ctx context.Context, req ports.SignUpRequest) (*ports.AuthResult, error) {
	if !emailPattern.MatchString(req.Email) {
		return nil, apperror.ErrInvalidEmail()
	}

	existing, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.ErrAuthUnknown(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailAlreadyInUse()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.ErrAuthUnknown(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	account := &ports.Account{
		ID:           uuid.New(),
		Email:        req.Email,
		Fullname:     req.Fullname,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperror.ErrAuthUnknown(fmt.Errorf("create account: %w", err))
	}

	user := domain.NewUser(account.ID, account.Fullname, account.Email, now)
	if err := s.store.CreateLedger(ctx, user); err != nil {
		return nil, apperror.ErrWriteFailed(fmt.Errorf("create ledger: %w", err))
	}

	ledger := s.sessions.Open(user)

	token, expiresAt, err := s.tokenSvc.Generate(account.ID, account.Email)
	if err != nil {
		return nil, apperror.ErrAuthUnknown(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().
		Str("user_id", account.ID.String()).
		Msg("account created")

	return &ports.AuthResult{
		UserID:    account.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ledger.Snapshot(),
	}, nil
}

// SignIn validates credentials, loads the ledger into a session and
// returns a token. Failures are classified; the gate stays signed out.
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	if !s.passwordSignInEnabled {
		return nil, apperror.ErrOperationNotAllowed()
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.ErrInvalidEmail()
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.ErrAuthUnknown(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrUserNotFound()
	}
	if account.Disabled {
		return nil, apperror.ErrUserDisabled()
	}

	valid, err := s.hashSvc.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, apperror.ErrAuthUnknown(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrWrongPassword()
	}

	// Identity established; now load the ledger document. A missing or
	// malformed document surfaces as a STORE error rather than a silent
	// nil ledger.
	ledger, err := s.sessions.GetOrLoad(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokenSvc.Generate(account.ID, account.Email)
	if err != nil {
		return nil, apperror.ErrAuthUnknown(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().
		Str("user_id", account.ID.String()).
		Msg("signed in")

	return &ports.AuthResult{
		UserID:    account.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ledger.Snapshot(),
	}, nil
}

// SignOut closes the session and discards the in-memory ledger. Every
// committed snapshot is already durable, so nothing is written.
func (s *AuthServiceImpl) SignOut(_ context.Context, userID uuid.UUID) {
	s.sessions.Close(userID)
	s.log.Info().Str("user_id", userID.String()).Msg("signed out")
}

// DeleteAccount removes the remote ledger document and the identity, then
// closes the session. It requires a freshly issued session token.
func (s *AuthServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID, tokenIssuedAt time.Time) error {
	if time.Since(tokenIssuedAt) > s.recentLoginWindow {
		return apperror.ErrRequiresRecentLogin()
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return apperror.ErrAuthUnknown(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return apperror.ErrUserNotFound()
	}

	// Ledger document first, identity second, matching the remote-store
	// ordering the rest of the service relies on.
	if err := s.store.DeleteLedger(ctx, userID); err != nil {
		return apperror.ErrWriteFailed(fmt.Errorf("delete ledger: %w", err))
	}
	if err := s.accounts.Delete(ctx, userID); err != nil {
		return apperror.ErrAuthUnknown(fmt.Errorf("delete account: %w", err))
	}

	s.sessions.Close(userID)

	s.log.Info().Str("user_id", userID.String()).Msg("account deleted")
	return nil
}
