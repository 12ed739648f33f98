package service

import (
	"context"
	"fmt"

	"cantor/internal/core/domain"
	"cantor/internal/core/ports"
	"cantor/internal/session"
	"cantor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WatchlistServiceImpl implements ports.WatchlistService. Watchlists are
// persisted as a whole collection on the ledger document; the transaction
// log is untouched by watchlist edits.
type WatchlistServiceImpl struct {
	sessions *session.Registry
	store    ports.LedgerStore
	log      zerolog.Logger
}

// NewWatchlistService creates a new WatchlistServiceImpl.
func NewWatchlistService(sessions *session.Registry, store ports.LedgerStore, log zerolog.Logger) *WatchlistServiceImpl {
	return &WatchlistServiceImpl{
		sessions: sessions,
		store:    store,
		log:      log,
	}
}

// List returns the watchlists from the current ledger snapshot.
func (s *WatchlistServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Watchlist, error) {
	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.Snapshot().Watchlists, nil
}

// Create adds a named watchlist. Names stay unique per user.
func (s *WatchlistServiceImpl) Create(ctx context.Context, userID uuid.UUID, name string) (*domain.Watchlist, error) {
	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return nil, err
	}

	var created domain.Watchlist
	err = ledger.Update(func(draft *domain.User) error {
		if draft.HasWatchlistNamed(name) {
			return apperror.ErrWatchlistNameTaken()
		}
		created = domain.NewWatchlist(name)
		draft.Watchlists = append(draft.Watchlists, created)
		return s.persistWatchlists(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("watchlist_id", created.ID.String()).
		Str("name", name).
		Msg("watchlist created")

	return &created, nil
}

// Rename changes a watchlist's name. Identity is the surrogate ID, so
// references to the watchlist survive the rename.
func (s *WatchlistServiceImpl) Rename(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID, newName string) error {
	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return err
	}

	return ledger.Update(func(draft *domain.User) error {
		i, ok := draft.WatchlistByID(watchlistID)
		if !ok {
			return apperror.ErrWatchlistNotFound()
		}
		if draft.Watchlists[i].Name != newName && draft.HasWatchlistNamed(newName) {
			return apperror.ErrWatchlistNameTaken()
		}
		draft.Watchlists[i].Name = newName
		return s.persistWatchlists(ctx, draft)
	})
}

// Delete removes a watchlist. Its name becomes reusable immediately.
func (s *WatchlistServiceImpl) Delete(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID) error {
	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return err
	}

	return ledger.Update(func(draft *domain.User) error {
		i, ok := draft.WatchlistByID(watchlistID)
		if !ok {
			return apperror.ErrWatchlistNotFound()
		}
		draft.Watchlists = append(draft.Watchlists[:i], draft.Watchlists[i+1:]...)
		return s.persistWatchlists(ctx, draft)
	})
}

// AddRate pins a rate snapshot to a watchlist. Pinning a code that is
// already present leaves the collection unchanged and writes nothing.
func (s *WatchlistServiceImpl) AddRate(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID, rate domain.Rate) error {
	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return err
	}

	return ledger.Update(func(draft *domain.User) error {
		i, ok := draft.WatchlistByID(watchlistID)
		if !ok {
			return apperror.ErrWatchlistNotFound()
		}
		if !draft.Watchlists[i].AddRate(rate) {
			s.log.Debug().
				Str("user_id", userID.String()).
				Str("code", rate.Code).
				Msg("rate already pinned")
			return session.ErrNoChange
		}
		return s.persistWatchlists(ctx, draft)
	})
}

// RemoveRate unpins a rate from a watchlist.
func (s *WatchlistServiceImpl) RemoveRate(ctx context.Context, userID uuid.UUID, watchlistID uuid.UUID, code string) error {
	ledger, err := s.sessions.GetOrLoad(ctx, userID)
	if err != nil {
		return err
	}

	return ledger.Update(func(draft *domain.User) error {
		i, ok := draft.WatchlistByID(watchlistID)
		if !ok {
			return apperror.ErrWatchlistNotFound()
		}
		if !draft.Watchlists[i].RemoveRate(code) {
			return apperror.ErrRateNotPinned()
		}
		return s.persistWatchlists(ctx, draft)
	})
}

// persistWatchlists merge-writes the whole watchlist collection.
func (s *WatchlistServiceImpl) persistWatchlists(ctx context.Context, draft *domain.User) error {
	fields := map[string]any{"watchlists": draft.Watchlists}
	if err := s.store.MergeWriteFields(ctx, draft.ID, fields); err != nil {
		s.log.Error().Err(err).Str("user_id", draft.ID.String()).Msg("watchlist write failed, rolling back")
		return apperror.ErrWriteFailed(fmt.Errorf("write watchlists: %w", err))
	}
	return nil
}
