package service

import (
	"context"
	"testing"
	"time"

	"cantor/internal/core/domain"
	"cantor/internal/core/ports/mocks"
	"cantor/internal/session"
	"cantor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type watchlistTestDeps struct {
	svc      *WatchlistServiceImpl
	store    *mocks.MockLedgerStore
	sessions *session.Registry
	user     *domain.User
}

func setupWatchlistService(t *testing.T) *watchlistTestDeps {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLedgerStore(ctrl)
	sessions := session.NewRegistry(store, zerolog.Nop())

	user := domain.NewUser(uuid.New(), "Jan Kowalski", "jan@example.com", time.Now().UTC())
	sessions.Open(user)

	return &watchlistTestDeps{
		svc:      NewWatchlistService(sessions, store, zerolog.Nop()),
		store:    store,
		sessions: sessions,
		user:     user,
	}
}

func (d *watchlistTestDeps) expectWatchlistWrites(times int) {
	d.store.EXPECT().MergeWriteFields(gomock.Any(), d.user.ID, gomock.Any()).Return(nil).Times(times)
}

func (d *watchlistTestDeps) snapshot(t *testing.T) *domain.User {
	ledger, ok := d.sessions.Get(d.user.ID)
	require.True(t, ok)
	return ledger.Snapshot()
}

func usdRate() domain.Rate {
	return domain.Rate{
		Currency: "dolar amerykański",
		Code:     "USD",
		Mid:      decimal.NewNullDecimal(decimal.RequireFromString("4.02")),
	}
}

func TestWatchlist_List(t *testing.T) {
	d := setupWatchlistService(t)
	d.expectWatchlistWrites(1)
	ctx := context.Background()

	_, err := d.svc.Create(ctx, d.user.ID, "Majors")
	require.NoError(t, err)

	watchlists, err := d.svc.List(ctx, d.user.ID)
	require.NoError(t, err)
	require.Len(t, watchlists, 2)
	assert.Equal(t, domain.DefaultWatchlistName, watchlists[0].Name)
	assert.Equal(t, "Majors", watchlists[1].Name)
}

func TestWatchlist_CreateRenameDelete(t *testing.T) {
	d := setupWatchlistService(t)
	d.expectWatchlistWrites(3)
	ctx := context.Background()

	created, err := d.svc.Create(ctx, d.user.ID, "Majors")
	require.NoError(t, err)
	assert.Equal(t, "Majors", created.Name)
	assert.NotEqual(t, uuid.Nil, created.ID)

	err = d.svc.Rename(ctx, d.user.ID, created.ID, "G10")
	require.NoError(t, err)

	snap := d.snapshot(t)
	i, ok := snap.WatchlistByID(created.ID)
	require.True(t, ok, "rename must not change the watchlist identity")
	assert.Equal(t, "G10", snap.Watchlists[i].Name)

	err = d.svc.Delete(ctx, d.user.ID, created.ID)
	require.NoError(t, err)

	snap = d.snapshot(t)
	if _, ok = snap.WatchlistByID(created.ID); ok {
		t.Fatal("deleted watchlist still present")
	}
	require.Len(t, snap.Watchlists, 1)
	assert.Equal(t, domain.DefaultWatchlistName, snap.Watchlists[0].Name)
}

func TestWatchlist_Create_NameTaken(t *testing.T) {
	d := setupWatchlistService(t)

	_, err := d.svc.Create(context.Background(), d.user.ID, domain.DefaultWatchlistName)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WL_002", appErr.Code)
	assert.Len(t, d.snapshot(t).Watchlists, 1)
}

func TestWatchlist_Create_NameReusableAfterDelete(t *testing.T) {
	d := setupWatchlistService(t)
	d.expectWatchlistWrites(3)
	ctx := context.Background()

	first, err := d.svc.Create(ctx, d.user.ID, "Majors")
	require.NoError(t, err)
	require.NoError(t, d.svc.Delete(ctx, d.user.ID, first.ID))

	second, err := d.svc.Create(ctx, d.user.ID, "Majors")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestWatchlist_Rename_NotFound(t *testing.T) {
	d := setupWatchlistService(t)

	err := d.svc.Rename(context.Background(), d.user.ID, uuid.New(), "G10")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WL_001", appErr.Code)
}

func TestWatchlist_Rename_NameTaken(t *testing.T) {
	d := setupWatchlistService(t)
	d.expectWatchlistWrites(1)
	ctx := context.Background()

	created, err := d.svc.Create(ctx, d.user.ID, "Majors")
	require.NoError(t, err)

	err = d.svc.Rename(ctx, d.user.ID, created.ID, domain.DefaultWatchlistName)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WL_002", appErr.Code)
}

func TestWatchlist_AddRate_IdempotentByCode(t *testing.T) {
	d := setupWatchlistService(t)
	ctx := context.Background()
	defaultID := d.user.Watchlists[0].ID

	// Only the first add persists; the repeat is a no-op without a write.
	d.expectWatchlistWrites(1)

	require.NoError(t, d.svc.AddRate(ctx, d.user.ID, defaultID, usdRate()))
	require.NoError(t, d.svc.AddRate(ctx, d.user.ID, defaultID, usdRate()))

	snap := d.snapshot(t)
	i, ok := snap.WatchlistByID(defaultID)
	require.True(t, ok)
	require.Len(t, snap.Watchlists[i].Rates, 1)
	assert.Equal(t, "USD", snap.Watchlists[i].Rates[0].Code)
}

func TestWatchlist_AddRate_RepeatDoesNotNotifySubscribers(t *testing.T) {
	d := setupWatchlistService(t)
	ctx := context.Background()
	defaultID := d.user.Watchlists[0].ID
	d.expectWatchlistWrites(1)

	require.NoError(t, d.svc.AddRate(ctx, d.user.ID, defaultID, usdRate()))

	ledger, ok := d.sessions.Get(d.user.ID)
	require.True(t, ok)
	before := ledger.Snapshot()
	ch, cancel := ledger.Subscribe()
	defer cancel()

	require.NoError(t, d.svc.AddRate(ctx, d.user.ID, defaultID, usdRate()))

	assert.Same(t, before, ledger.Snapshot(), "repeat pin must keep the committed snapshot")
	select {
	case <-ch:
		t.Fatal("repeat pin must not publish a snapshot")
	default:
	}
}

func TestWatchlist_RemoveRate(t *testing.T) {
	d := setupWatchlistService(t)
	d.expectWatchlistWrites(2)
	ctx := context.Background()
	defaultID := d.user.Watchlists[0].ID

	require.NoError(t, d.svc.AddRate(ctx, d.user.ID, defaultID, usdRate()))
	require.NoError(t, d.svc.RemoveRate(ctx, d.user.ID, defaultID, "USD"))

	snap := d.snapshot(t)
	i, ok := snap.WatchlistByID(defaultID)
	require.True(t, ok)
	assert.Empty(t, snap.Watchlists[i].Rates)
}

func TestWatchlist_RemoveRate_NotPinned(t *testing.T) {
	d := setupWatchlistService(t)
	defaultID := d.user.Watchlists[0].ID

	err := d.svc.RemoveRate(context.Background(), d.user.ID, defaultID, "USD")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WL_003", appErr.Code)
}
