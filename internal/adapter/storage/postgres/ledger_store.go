package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cantor/internal/core/domain"
	"cantor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerStore implements ports.LedgerStore on two tables: one JSONB
// document per user (ledger_documents) and an append-only transaction log
// (ledger_transactions). The log is the single durable representation of
// history; the document never carries a history array.
type LedgerStore struct {
	pool Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// ledgerDocument is the JSONB shape of one ledger document. Field names
// line up with the keys MergeWriteFields receives.
type ledgerDocument struct {
	Fullname   string                     `json:"fullname"`
	Email      string                     `json:"email"`
	Balance    map[string]decimal.Decimal `json:"balance"`
	Watchlists []domain.Watchlist         `json:"watchlists"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// CreateLedger writes the initial document for a new account.
func (s *LedgerStore) CreateLedger(ctx context.Context, user *domain.User) error {
	doc, err := json.Marshal(ledgerDocument{
		Fullname:   user.Fullname,
		Email:      user.Email,
		Balance:    user.Balance,
		Watchlists: user.Watchlists,
		CreatedAt:  user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode ledger document: %w", err)
	}

	query := `INSERT INTO ledger_documents (user_id, doc, updated_at)
		VALUES ($1, $2, NOW())`
	if _, err := s.pool.Exec(ctx, query, user.ID, doc); err != nil {
		return fmt.Errorf("insert ledger document: %w", err)
	}
	return nil
}

// ReadLedger loads the document and joins in the transaction log, oldest
// first.
func (s *LedgerStore) ReadLedger(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM ledger_documents WHERE user_id = $1`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrLedgerNotFound()
		}
		return nil, fmt.Errorf("read ledger document: %w", err)
	}

	var doc ledgerDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.ErrLedgerDecode(err)
	}

	user := &domain.User{
		ID:                 id,
		Fullname:           doc.Fullname,
		Email:              doc.Email,
		Balance:            doc.Balance,
		Watchlists:         doc.Watchlists,
		CreatedAt:          doc.CreatedAt,
		TransactionHistory: []domain.Transaction{},
	}
	if user.Balance == nil {
		user.Balance = map[string]decimal.Decimal{}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, currency_from, currency_to, amount, type, date
		 FROM ledger_transactions WHERE user_id = $1 ORDER BY seq ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("read transaction log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var txn domain.Transaction
		if err := rows.Scan(
			&txn.ID, &txn.CurrencyFrom, &txn.CurrencyTo,
			&txn.Amount, &txn.Type, &txn.Date,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		user.TransactionHistory = append(user.TransactionHistory, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction log: %w", err)
	}

	return user, nil
}

// MergeWriteFields overwrites only the named top-level document fields via
// a JSONB concatenation, leaving everything else untouched.
func (s *LedgerStore) MergeWriteFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode field patch: %w", err)
	}

	query := `UPDATE ledger_documents SET doc = doc || $2::jsonb, updated_at = NOW()
		WHERE user_id = $1`
	tag, err := s.pool.Exec(ctx, query, id, patch)
	if err != nil {
		return fmt.Errorf("merge-write ledger document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrLedgerNotFound()
	}
	return nil
}

// AppendTransaction appends one entry to the transaction log.
func (s *LedgerStore) AppendTransaction(ctx context.Context, id uuid.UUID, txn domain.Transaction) error {
	query := `INSERT INTO ledger_transactions (id, user_id, currency_from, currency_to, amount, type, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, query,
		txn.ID, id, txn.CurrencyFrom, txn.CurrencyTo, txn.Amount, txn.Type, txn.Date,
	)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// DeleteLedger removes the document and its transaction log atomically.
func (s *LedgerStore) DeleteLedger(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete ledger: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_transactions WHERE user_id = $1`, id); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("delete transaction log: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_documents WHERE user_id = $1`, id); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("delete ledger document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete ledger: %w", err)
	}
	return nil
}
