package service

import (
	"context"
	"fmt"
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

type settlementTestDeps struct {
	svc      *SettlementServiceImpl
	store    *mocks.MockLedgerStore
	sessions *session.Registry
	user     *domain.User
	ctrl     *gomock.Controller
}

// setupSettlement opens a session around a fresh ledger so the store mock
// only sees writes, not the initial load.
func setupSettlement(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLedgerStore(ctrl)
	sessions := session.NewRegistry(store, zerolog.Nop())

	user := domain.NewUser(uuid.New(), "Jan Kowalski", "jan@example.com", time.Now().UTC())
	sessions.Open(user)

	return &settlementTestDeps{
		svc:      NewSettlementService(sessions, store, zerolog.Nop()),
		store:    store,
		sessions: sessions,
		user:     user,
		ctrl:     ctrl,
	}
}

func (d *settlementTestDeps) expectSettlementWrites(times int) {
	d.store.EXPECT().MergeWriteFields(gomock.Any(), d.user.ID, gomock.Any()).Return(nil).Times(times)
	d.store.EXPECT().AppendTransaction(gomock.Any(), d.user.ID, gomock.Any()).Return(nil).Times(times)
}

func (d *settlementTestDeps) snapshot(t *testing.T) *domain.User {
	snap, err := d.svc.Snapshot(context.Background(), d.user.ID)
	require.NoError(t, err)
	return snap
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ==================== TopUp ====================

func TestSettlement_TopUp_Success(t *testing.T) {
	d := setupSettlement(t)
	d.expectSettlementWrites(1)

	txn, err := d.svc.TopUp(context.Background(), d.user.ID, dec("100"))
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, domain.TransactionTypeTopUp, txn.Type)
	assert.Empty(t, txn.CurrencyFrom)
	assert.Equal(t, domain.HomeCurrency, txn.CurrencyTo)
	assert.True(t, txn.Amount.Equal(dec("100")))

	snap := d.snapshot(t)
	assert.True(t, snap.Balance[domain.HomeCurrency].Equal(dec("100")))
	require.Len(t, snap.TransactionHistory, 1)
	assert.Equal(t, txn.ID, snap.TransactionHistory[0].ID)
}

func TestSettlement_TopUp_RejectsNonPositiveAmount(t *testing.T) {
	d := setupSettlement(t)

	for _, amount := range []string{"0", "-5"} {
		_, err := d.svc.TopUp(context.Background(), d.user.ID, dec(amount))

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "TXN_001", appErr.Code)
	}

	snap := d.snapshot(t)
	assert.True(t, snap.Balance[domain.HomeCurrency].IsZero())
	assert.Empty(t, snap.TransactionHistory)
}

// ==================== Buy ====================

func TestSettlement_Buy_Success(t *testing.T) {
	d := setupSettlement(t)
	d.expectSettlementWrites(2)

	_, err := d.svc.TopUp(context.Background(), d.user.ID, dec("100"))
	require.NoError(t, err)

	txn, err := d.svc.Buy(context.Background(), d.user.ID, dec("10"), "USD", dec("4"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeBuy, txn.Type)
	assert.Equal(t, domain.HomeCurrency, txn.CurrencyFrom)
	assert.Equal(t, "USD", txn.CurrencyTo)
	// The recorded amount is the acquired quantity, not the PLN cost.
	assert.True(t, txn.Amount.Equal(dec("10")))

	snap := d.snapshot(t)
	assert.True(t, snap.Balance[domain.HomeCurrency].Equal(dec("60")))
	assert.True(t, snap.Balance["USD"].Equal(dec("10")))
	require.Len(t, snap.TransactionHistory, 2)
	assert.Equal(t, domain.TransactionTypeTopUp, snap.TransactionHistory[0].Type)
	assert.Equal(t, domain.TransactionTypeBuy, snap.TransactionHistory[1].Type)
}

func TestSettlement_Buy_InsufficientFunds(t *testing.T) {
	d := setupSettlement(t)
	d.expectSettlementWrites(1)

	_, err := d.svc.TopUp(context.Background(), d.user.ID, dec("39.99"))
	require.NoError(t, err)

	_, err = d.svc.Buy(context.Background(), d.user.ID, dec("10"), "USD", dec("4"))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TXN_002", appErr.Code)

	snap := d.snapshot(t)
	assert.True(t, snap.Balance[domain.HomeCurrency].Equal(dec("39.99")), "balance unchanged")
	assert.True(t, snap.BalanceOf("USD").IsZero())
	assert.Len(t, snap.TransactionHistory, 1, "no transaction appended")
}

func TestSettlement_Buy_RejectsBadInputs(t *testing.T) {
	d := setupSettlement(t)

	_, err := d.svc.Buy(context.Background(), d.user.ID, dec("0"), "USD", dec("4"))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TXN_001", appErr.Code)

	_, err = d.svc.Buy(context.Background(), d.user.ID, dec("10"), "USD", dec("0"))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TXN_003", appErr.Code)
}

// ==================== Sell ====================

func TestSettlement_Sell_Success(t *testing.T) {
	d := setupSettlement(t)
	d.expectSettlementWrites(3)

	ctx := context.Background()
	_, err := d.svc.TopUp(ctx, d.user.ID, dec("100"))
	require.NoError(t, err)
	_, err = d.svc.Buy(ctx, d.user.ID, dec("10"), "USD", dec("4"))
	require.NoError(t, err)

	txn, err := d.svc.Sell(ctx, d.user.ID, dec("4"), "USD", dec("4.5"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeSell, txn.Type)
	assert.Equal(t, "USD", txn.CurrencyFrom)
	assert.Equal(t, domain.HomeCurrency, txn.CurrencyTo)
	// The recorded amount is the sold quantity, not the PLN proceeds.
	assert.True(t, txn.Amount.Equal(dec("4")))

	snap := d.snapshot(t)
	assert.True(t, snap.Balance["USD"].Equal(dec("6")))
	assert.True(t, snap.Balance[domain.HomeCurrency].Equal(dec("78")), "60 + 4*4.5")
}

func TestSettlement_Sell_InsufficientFunds(t *testing.T) {
	d := setupSettlement(t)

	_, err := d.svc.Sell(context.Background(), d.user.ID, dec("1"), "USD", dec("4"))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TXN_002", appErr.Code)
	assert.Empty(t, d.snapshot(t).TransactionHistory)
}

func TestSettlement_BuySellRoundTrip(t *testing.T) {
	d := setupSettlement(t)
	d.expectSettlementWrites(3)

	ctx := context.Background()
	_, err := d.svc.TopUp(ctx, d.user.ID, dec("250"))
	require.NoError(t, err)

	_, err = d.svc.Buy(ctx, d.user.ID, dec("31.7"), "CHF", dec("4.67"))
	require.NoError(t, err)
	_, err = d.svc.Sell(ctx, d.user.ID, dec("31.7"), "CHF", dec("4.67"))
	require.NoError(t, err)

	snap := d.snapshot(t)
	assert.True(t, snap.Balance[domain.HomeCurrency].Equal(dec("250")),
		"same-rate round trip must restore the home balance exactly")
	assert.True(t, snap.Balance["CHF"].IsZero())
}

// ==================== Persistence failures ====================

func TestSettlement_BalanceWriteFails_RollsBack(t *testing.T) {
	d := setupSettlement(t)

	d.store.EXPECT().
		MergeWriteFields(gomock.Any(), d.user.ID, gomock.Any()).
		Return(fmt.Errorf("store offline"))

	_, err := d.svc.TopUp(context.Background(), d.user.ID, dec("100"))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "STORE_003", appErr.Code)

	snap := d.snapshot(t)
	assert.True(t, snap.Balance[domain.HomeCurrency].IsZero(), "in-memory balance rolled back")
	assert.Empty(t, snap.TransactionHistory)
}

func TestSettlement_TransactionAppendFails_RollsBack(t *testing.T) {
	d := setupSettlement(t)

	d.store.EXPECT().MergeWriteFields(gomock.Any(), d.user.ID, gomock.Any()).Return(nil)
	d.store.EXPECT().
		AppendTransaction(gomock.Any(), d.user.ID, gomock.Any()).
		Return(fmt.Errorf("store offline"))

	_, err := d.svc.TopUp(context.Background(), d.user.ID, dec("100"))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "STORE_003", appErr.Code)
	assert.Empty(t, d.snapshot(t).TransactionHistory)
}

// ==================== History invariants ====================

func TestSettlement_HistoryAppendOnlyAndOrdered(t *testing.T) {
	d := setupSettlement(t)
	d.expectSettlementWrites(5)

	ctx := context.Background()
	_, err := d.svc.TopUp(ctx, d.user.ID, dec("1000"))
	require.NoError(t, err)
	_, err = d.svc.Buy(ctx, d.user.ID, dec("10"), "USD", dec("4"))
	require.NoError(t, err)
	_, err = d.svc.Buy(ctx, d.user.ID, dec("20"), "EUR", dec("4.3"))
	require.NoError(t, err)
	_, err = d.svc.Sell(ctx, d.user.ID, dec("5"), "USD", dec("4.1"))
	require.NoError(t, err)
	_, err = d.svc.TopUp(ctx, d.user.ID, dec("50"))
	require.NoError(t, err)

	history := d.snapshot(t).TransactionHistory
	require.Len(t, history, 5)

	wantTypes := []domain.TransactionType{
		domain.TransactionTypeTopUp,
		domain.TransactionTypeBuy,
		domain.TransactionTypeBuy,
		domain.TransactionTypeSell,
		domain.TransactionTypeTopUp,
	}
	for i, want := range wantTypes {
		assert.Equal(t, want, history[i].Type)
	}
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Date.Before(history[i-1].Date),
			"timestamps must match invocation order")
	}
}

func TestSettlement_Snapshot_LoadsLedgerLazily(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLedgerStore(ctrl)
	sessions := session.NewRegistry(store, zerolog.Nop())
	svc := NewSettlementService(sessions, store, zerolog.Nop())

	user := domain.NewUser(uuid.New(), "Jan", "jan@example.com", time.Now().UTC())
	store.EXPECT().ReadLedger(gomock.Any(), user.ID).Return(user, nil)

	snap, err := svc.Snapshot(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, snap.ID)
}
