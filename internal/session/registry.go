package session

import (
	"context"
	"sync"

	"cantor/internal/core/domain"
	"cantor/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the session gate state for one identity.
type State int

const (
	SignedOut State = iota
	Authenticating
	SignedIn
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case SignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// Registry holds at most one live Ledger per user. Sign-in opens a
// session, sign-out closes it; after a process restart the first
// authenticated request reloads the ledger document lazily.
type Registry struct {
	store ports.LedgerStore
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*slot
}

// slot tracks one identity's session, including an in-flight load so that
// concurrent requests for the same user share a single ReadLedger call.
type slot struct {
	ready  chan struct{}
	ledger *Ledger
	err    error
}

// NewRegistry creates an empty session registry.
func NewRegistry(store ports.LedgerStore, log zerolog.Logger) *Registry {
	return &Registry{
		store:    store,
		log:      log,
		sessions: make(map[uuid.UUID]*slot),
	}
}

// Open installs a session around an already-loaded ledger (sign-up and
// sign-in paths, where the document was just created or fetched).
func (r *Registry) Open(user *domain.User) *Ledger {
	ledger := NewLedger(user)

	r.mu.Lock()
	defer r.mu.Unlock()

	s := &slot{ready: make(chan struct{}), ledger: ledger}
	close(s.ready)
	r.sessions[user.ID] = s
	return ledger
}

// GetOrLoad returns the user's live session, loading the ledger document
// if no session exists yet. Concurrent callers for the same user block on
// one shared load.
func (r *Registry) GetOrLoad(ctx context.Context, userID uuid.UUID) (*Ledger, error) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if ok {
		r.mu.Unlock()
		<-s.ready
		if s.err != nil {
			return nil, s.err
		}
		return s.ledger, nil
	}

	s = &slot{ready: make(chan struct{})}
	r.sessions[userID] = s
	r.mu.Unlock()

	user, err := r.store.ReadLedger(ctx, userID)
	if err != nil {
		r.mu.Lock()
		delete(r.sessions, userID)
		r.mu.Unlock()
		s.err = err
		close(s.ready)
		r.log.Warn().Err(err).Str("user_id", userID.String()).Msg("ledger load failed")
		return nil, err
	}

	s.ledger = NewLedger(user)
	close(s.ready)
	return s.ledger, nil
}

// Get returns the live session without loading.
func (r *Registry) Get(userID uuid.UUID) (*Ledger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok || s.ledger == nil {
		return nil, false
	}
	select {
	case <-s.ready:
		return s.ledger, s.err == nil
	default:
		return nil, false
	}
}

// Close discards the in-memory ledger. No persistence call is made: every
// committed snapshot is already durable.
func (r *Registry) Close(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// StateOf reports the gate state for an identity.
func (r *Registry) StateOf(userID uuid.UUID) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		return SignedOut
	}
	select {
	case <-s.ready:
		if s.err != nil {
			return SignedOut
		}
		return SignedIn
	default:
		return Authenticating
	}
}
