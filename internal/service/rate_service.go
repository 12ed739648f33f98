package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"cantor/internal/core/domain"
	"cantor/internal/core/ports"
	"cantor/pkg/apperror"

	"github.com/rs/zerolog"
)

// RateServiceImpl implements ports.RateService: cache-aside reads of the
// current rate table and latest-wins historical series fetches.
type RateServiceImpl struct {
	src      ports.RateSource
	cache    ports.RateCache
	cacheTTL time.Duration
	log      zerolog.Logger

	mu   sync.Mutex
	hist map[string]*histFetch
}

// histFetch tracks one viewer's in-flight history fetch. Supersession is
// scoped to the viewer: a newer fetch cancels only that viewer's previous
// one, never another client's.
type histFetch struct {
	gen    uint64
	cancel context.CancelFunc
}

// NewRateService creates a new RateServiceImpl. cache may be nil to
// disable caching.
func NewRateService(src ports.RateSource, cache ports.RateCache, cacheTTL time.Duration, log zerolog.Logger) *RateServiceImpl {
	return &RateServiceImpl{
		src:      src,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
		hist:     make(map[string]*histFetch),
	}
}

// CurrentRates returns the latest mid-rate table, from cache when fresh.
func (s *RateServiceImpl) CurrentRates(ctx context.Context) (*domain.RateTable, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate cache read failed, falling through to source")
		}
		if cached != nil {
			table := &domain.RateTable{}
			if err := json.Unmarshal(cached, table); err == nil {
				return table, nil
			}
			s.log.Warn().Msg("discarding malformed cached rate table")
		}
	}

	table, err := s.src.FetchCurrentRates(ctx)
	if err != nil {
		return nil, apperror.ErrRateSourceUnavailable(err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(table); err == nil {
			if err := s.cache.Set(ctx, payload, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("failed to cache rate table")
			}
		}
	}

	return table, nil
}

// History fetches the rate series for one code over a date window.
//
// Only the viewer's newest in-flight fetch may update visible state:
// starting a new fetch cancels that same viewer's previous one, and a
// superseded fetch returns RATE_002 so its (possibly stale) result is
// discarded by the caller. Fetches by different viewers are independent.
func (s *RateServiceImpl) History(ctx context.Context, viewer, code string, from, to time.Time) ([]domain.RatePoint, error) {
	s.mu.Lock()
	st, ok := s.hist[viewer]
	if !ok {
		st = &histFetch{}
		s.hist[viewer] = st
	}
	if st.cancel != nil {
		st.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	st.gen++
	gen := st.gen
	s.mu.Unlock()

	defer cancel()

	points, err := s.src.FetchRateHistory(fetchCtx, code, from, to)

	s.mu.Lock()
	superseded := gen != st.gen
	if !superseded {
		delete(s.hist, viewer)
	}
	s.mu.Unlock()

	if superseded {
		return nil, apperror.ErrFetchSuperseded()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperror.ErrFetchSuperseded()
		}
		return nil, apperror.ErrRateSourceUnavailable(err)
	}
	return points, nil
}
