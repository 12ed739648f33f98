// Package session owns the in-memory ledger of a signed-in user. Each
// ledger has exactly one authoritative copy, mutations serialize through a
// single writer lock, and committed snapshots are published to subscribers
// instead of being consumed as one-shot return values.
package session

import (
	"errors"
	"sync"

	"cantor/internal/core/domain"

	"github.com/google/uuid"
)

// ErrNoChange is returned from inside Update by an fn that found nothing
// to do. Update reports success but keeps the previous snapshot, so
// subscribers are not notified of a state that did not change.
var ErrNoChange = errors.New("session: no change")

// Ledger is the session-scoped context object for one user's ledger.
//
// Snapshots handed out by Snapshot and the subscriber channels are shared
// and must be treated as immutable; mutation happens only inside Update on
// a private deep copy.
type Ledger struct {
	userID uuid.UUID

	mu   sync.RWMutex
	user *domain.User

	subMu  sync.Mutex
	subs   map[int]chan *domain.User
	nextID int
}

// NewLedger wraps a freshly loaded ledger document in a session.
func NewLedger(user *domain.User) *Ledger {
	return &Ledger{
		userID: user.ID,
		user:   user,
		subs:   make(map[int]chan *domain.User),
	}
}

// UserID returns the identity this session is scoped to.
func (l *Ledger) UserID() uuid.UUID {
	return l.userID
}

// Snapshot returns the current committed ledger snapshot.
func (l *Ledger) Snapshot() *domain.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.user
}

// Update runs one settlement operation under the writer lock.
//
// fn receives a deep copy of the ledger and is expected to validate,
// mutate the copy, and durably record the mutation. Only when fn returns
// nil does the copy become the committed snapshot; any error leaves the
// previous snapshot in place, so a failed persistence call rolls back.
// ErrNoChange leaves the snapshot in place too, but Update returns nil.
func (l *Ledger) Update(fn func(draft *domain.User) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	draft := l.user.Clone()
	if err := fn(draft); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	l.user = draft
	l.publish(draft)
	return nil
}

// Subscribe registers for committed snapshots. The channel holds the
// latest snapshot only; a slow subscriber sees the newest state, not every
// intermediate one. The returned cancel func releases the subscription.
func (l *Ledger) Subscribe() (<-chan *domain.User, func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	id := l.nextID
	l.nextID++
	ch := make(chan *domain.User, 1)
	l.subs[id] = ch

	cancel := func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (l *Ledger) publish(snap *domain.User) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	for _, ch := range l.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
