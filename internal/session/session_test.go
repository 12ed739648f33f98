package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cantor/internal/core/domain"
	"cantor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser() *domain.User {
	return domain.NewUser(uuid.New(), "Jan Kowalski", "jan@example.com", time.Now().UTC())
}

func TestLedger_Update_CommitsOnSuccess(t *testing.T) {
	l := NewLedger(newTestUser())

	err := l.Update(func(draft *domain.User) error {
		draft.Balance[domain.HomeCurrency] = decimal.NewFromInt(100)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, l.Snapshot().Balance[domain.HomeCurrency].Equal(decimal.NewFromInt(100)))
}

func TestLedger_Update_RollsBackOnError(t *testing.T) {
	l := NewLedger(newTestUser())

	err := l.Update(func(draft *domain.User) error {
		draft.Balance[domain.HomeCurrency] = decimal.NewFromInt(100)
		return fmt.Errorf("write failed")
	})
	require.Error(t, err)

	assert.True(t, l.Snapshot().Balance[domain.HomeCurrency].IsZero(),
		"failed update must not become visible")
}

func TestLedger_Update_NoChangeKeepsSnapshotAndSkipsPublish(t *testing.T) {
	l := NewLedger(newTestUser())
	before := l.Snapshot()
	ch, cancel := l.Subscribe()
	defer cancel()

	err := l.Update(func(draft *domain.User) error {
		return ErrNoChange
	})
	require.NoError(t, err)

	assert.Same(t, before, l.Snapshot(), "no-op update must not commit a new snapshot")
	select {
	case <-ch:
		t.Fatal("no-op update must not notify subscribers")
	default:
	}
}

func TestLedger_Update_SerializesWriters(t *testing.T) {
	l := NewLedger(newTestUser())

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Update(func(draft *domain.User) error {
				draft.Balance[domain.HomeCurrency] = draft.Balance[domain.HomeCurrency].Add(decimal.NewFromInt(1))
				return nil
			})
		}()
	}
	wg.Wait()

	assert.True(t, l.Snapshot().Balance[domain.HomeCurrency].Equal(decimal.NewFromInt(writers)),
		"no increment may be lost")
}

func TestLedger_Subscribe_ReceivesCommittedSnapshot(t *testing.T) {
	l := NewLedger(newTestUser())
	ch, cancel := l.Subscribe()
	defer cancel()

	require.NoError(t, l.Update(func(draft *domain.User) error {
		draft.Balance[domain.HomeCurrency] = decimal.NewFromInt(7)
		return nil
	}))

	select {
	case snap := <-ch:
		assert.True(t, snap.Balance[domain.HomeCurrency].Equal(decimal.NewFromInt(7)))
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestLedger_Subscribe_SlowSubscriberSeesLatest(t *testing.T) {
	l := NewLedger(newTestUser())
	ch, cancel := l.Subscribe()
	defer cancel()

	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Update(func(draft *domain.User) error {
			draft.Balance[domain.HomeCurrency] = decimal.NewFromInt(int64(i))
			return nil
		}))
	}

	snap := <-ch
	assert.True(t, snap.Balance[domain.HomeCurrency].Equal(decimal.NewFromInt(3)),
		"pending snapshot must be the newest one")
}

func TestLedger_Subscribe_CancelTwiceIsSafe(t *testing.T) {
	l := NewLedger(newTestUser())
	_, cancel := l.Subscribe()
	cancel()
	cancel()
}

// stubStore is a minimal LedgerStore for registry tests.
type stubStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	reads int
}

func (s *stubStore) CreateLedger(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[uuid.UUID]*domain.User)
	}
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *stubStore) ReadLedger(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.ErrLedgerNotFound()
	}
	return u.Clone(), nil
}

func (s *stubStore) MergeWriteFields(context.Context, uuid.UUID, map[string]any) error {
	return nil
}

func (s *stubStore) AppendTransaction(context.Context, uuid.UUID, domain.Transaction) error {
	return nil
}

func (s *stubStore) DeleteLedger(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func TestRegistry_OpenGetClose(t *testing.T) {
	r := NewRegistry(&stubStore{}, zerolog.Nop())
	user := newTestUser()

	assert.Equal(t, SignedOut, r.StateOf(user.ID))

	ledger := r.Open(user)
	assert.Equal(t, SignedIn, r.StateOf(user.ID))

	got, ok := r.Get(user.ID)
	require.True(t, ok)
	assert.Same(t, ledger, got)

	r.Close(user.ID)
	_, ok = r.Get(user.ID)
	assert.False(t, ok)
	assert.Equal(t, SignedOut, r.StateOf(user.ID))
}

func TestRegistry_GetOrLoad_LoadsOnce(t *testing.T) {
	store := &stubStore{}
	user := newTestUser()
	require.NoError(t, store.CreateLedger(context.Background(), user))

	r := NewRegistry(store, zerolog.Nop())

	const callers = 20
	var wg sync.WaitGroup
	ledgers := make([]*Ledger, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := r.GetOrLoad(context.Background(), user.ID)
			require.NoError(t, err)
			ledgers[i] = l
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, ledgers[0], ledgers[i], "all callers must share one session")
	}
	assert.Equal(t, 1, store.reads, "concurrent callers must share a single load")
}

func TestRegistry_GetOrLoad_MissingLedger(t *testing.T) {
	r := NewRegistry(&stubStore{}, zerolog.Nop())

	_, err := r.GetOrLoad(context.Background(), uuid.New())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "STORE_001", appErr.Code)

	// A failed load leaves the gate signed out and retryable.
	assert.Equal(t, SignedOut, r.StateOf(uuid.New()))
}
