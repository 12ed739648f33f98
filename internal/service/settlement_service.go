package service

import (
	"context"
	"fmt"
	"time"

	"cantor/internal/core/domain"
	"cantor/internal/core/ports"
	"cantor/internal/session"
	"cantor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SettlementServiceImpl implements ports.SettlementService.
//
// Every operation follows the same sequence: validate against the draft,
// mutate the draft, persist in a fixed order (balance merge-write, then
// transaction append), and only then let the session commit the draft as
// the visible snapshot. A persistence failure therefore rolls the
// in-memory ledger back to its previous state.
type SettlementServiceImpl struct {
	sessions *session.Registry
	store    ports.LedgerStore
	log      zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(sessions *session.Registry, store ports.LedgerStore, log zerolog.Logger) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		sessions: sessions,
		store:    store,
		log:      log,
	}
}

// TopUp credits the home-currency balance.
func (s *SettlementServiceImpl) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return nil, err
	}

	var txn domain.Transaction
	err = ledger.Update(func(draft *domain.User) error {
		draft.Balance[domain.HomeCurrency] = draft.BalanceOf(domain.HomeCurrency).Add(amount)

		txn = domain.NewTopUpTransaction(amount, time.Now().UTC())
		draft.TransactionHistory = append(draft.TransactionHistory, txn)

		return s.persistSettlement(ctx, draft, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("amount", amount.String()).
		Msg("top-up settled")

	return &txn, nil
}

// Buy acquires amount units of code, debiting PLN at the supplied rate.
// The recorded transaction amount is the acquired-currency quantity, not
// the PLN cost.
func (s *SettlementServiceImpl) Buy(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, code string, rate decimal.Decimal) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if !rate.IsPositive() {
		return nil, apperror.ErrInvalidRate()
	}

	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return nil, err
	}

	var txn domain.Transaction
	err = ledger.Update(func(draft *domain.User) error {
		cost := amount.Mul(rate)
		if draft.BalanceOf(domain.HomeCurrency).LessThan(cost) {
			return apperror.ErrInsufficientFunds()
		}

		draft.Balance[domain.HomeCurrency] = draft.BalanceOf(domain.HomeCurrency).Sub(cost)
		draft.Balance[code] = draft.BalanceOf(code).Add(amount)

		txn = domain.NewBuyTransaction(amount, code, time.Now().UTC())
		draft.TransactionHistory = append(draft.TransactionHistory, txn)

		return s.persistSettlement(ctx, draft, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("code", code).
		Str("amount", amount.String()).
		Str("rate", rate.String()).
		Msg("buy settled")

	return &txn, nil
}

// Sell gives up amount units of code, crediting PLN at the supplied rate.
// The recorded transaction amount is the sold-currency quantity.
func (s *SettlementServiceImpl) Sell(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, code string, rate decimal.Decimal) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if !rate.IsPositive() {
		return nil, apperror.ErrInvalidRate()
	}

	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return nil, err
	}

	var txn domain.Transaction
	err = ledger.Update(func(draft *domain.User) error {
		if draft.BalanceOf(code).LessThan(amount) {
			return apperror.ErrInsufficientFunds()
		}

		proceeds := amount.Mul(rate)
		draft.Balance[code] = draft.BalanceOf(code).Sub(amount)
		draft.Balance[domain.HomeCurrency] = draft.BalanceOf(domain.HomeCurrency).Add(proceeds)

		txn = domain.NewSellTransaction(amount, code, time.Now().UTC())
		draft.TransactionHistory = append(draft.TransactionHistory, txn)

		return s.persistSettlement(ctx, draft, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("code", code).
		Str("amount", amount.String()).
		Str("rate", rate.String()).
		Msg("sell settled")

	return &txn, nil
}

// Snapshot returns the current committed ledger snapshot.
func (s *SettlementServiceImpl) Snapshot(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.Snapshot(), nil
}

// persistSettlement durably records a settled draft. Write order is fixed:
// the balance merge-write first, then the history append. The append-only
// transaction log is the single durable representation of history, so no
// flattened history array is written back to the document.
func (s *SettlementServiceImpl) persistSettlement(ctx context.Context, draft *domain.User, txn domain.Transaction) error {
	fields := map[string]any{"balance": draft.Balance}
	if err := s.store.MergeWriteFields(ctx, draft.ID, fields); err != nil {
		s.log.Error().Err(err).Str("user_id", draft.ID.String()).Msg("balance write failed, rolling back")
		return apperror.ErrWriteFailed(fmt.Errorf("write balance: %w", err))
	}

	if err := s.store.AppendTransaction(ctx, draft.ID, txn); err != nil {
		s.log.Error().Err(err).Str("user_id", draft.ID.String()).Msg("transaction append failed, rolling back")
		return apperror.ErrWriteFailed(fmt.Errorf("append transaction: %w", err))
	}

	return nil
}
