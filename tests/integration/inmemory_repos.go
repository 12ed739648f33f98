package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cantor/internal/core/domain"
	"cantor/internal/core/ports"
	"cantor/pkg/apperror"

	"github.com/google/uuid"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*ports.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*ports.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *ports.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByEmail(ctx context.Context, email string) (*ports.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.Email == email {
			cp := *account
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*ports.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

func (r *inMemoryAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

// --- In-Memory Ledger Store ---

// inMemoryLedgerStore mirrors the document-store contract: a document per
// user holding balance and watchlists, plus a separate append-only
// transaction log joined in on reads. Merge-writes go through JSON so the
// partial-update semantics match the real adapter.
type inMemoryLedgerStore struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*domain.User
	log  map[uuid.UUID][]domain.Transaction
}

func newInMemoryLedgerStore() *inMemoryLedgerStore {
	return &inMemoryLedgerStore{
		docs: make(map[uuid.UUID]*domain.User),
		log:  make(map[uuid.UUID][]domain.Transaction),
	}
}

func (s *inMemoryLedgerStore) CreateLedger(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := user.Clone()
	doc.TransactionHistory = nil
	s.docs[user.ID] = doc
	return nil
}

func (s *inMemoryLedgerStore) ReadLedger(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, apperror.ErrLedgerNotFound()
	}
	user := doc.Clone()
	user.TransactionHistory = append([]domain.Transaction{}, s.log[id]...)
	return user, nil
}

func (s *inMemoryLedgerStore) MergeWriteFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return apperror.ErrLedgerNotFound()
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return apperror.ErrWriteFailed(err)
	}
	if err := json.Unmarshal(patch, doc); err != nil {
		return apperror.ErrWriteFailed(err)
	}
	return nil
}

func (s *inMemoryLedgerStore) AppendTransaction(ctx context.Context, id uuid.UUID, txn domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return apperror.ErrLedgerNotFound()
	}
	s.log[id] = append(s.log[id], txn)
	return nil
}

func (s *inMemoryLedgerStore) DeleteLedger(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	delete(s.log, id)
	return nil
}
