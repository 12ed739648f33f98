package nbp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cantor/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableAPayload = `[
  {
    "table": "A",
    "no": "168/A/NBP/2026",
    "effectiveDate": "2026-08-28",
    "rates": [
      {"currency": "dolar amerykański", "code": "USD", "mid": 4.0215},
      {"currency": "euro", "code": "EUR", "mid": 4.3102},
      {"currency": "SDR (MFW)", "code": "XDR", "mid": null}
    ]
  }
]`

const usdHistoryPayload = `{
  "table": "A",
  "currency": "dolar amerykański",
  "code": "USD",
  "rates": [
    {"no": "126/A/NBP/2026", "effectiveDate": "2026-07-01", "mid": 4.0101},
    {"no": "127/A/NBP/2026", "effectiveDate": "2026-07-02", "mid": 4.0052}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestClient_FetchCurrentRates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchangerates/tables/A", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tableAPayload))
	})

	table, err := client.FetchCurrentRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", table.Table)
	assert.Equal(t, "2026-08-28", table.EffectiveDate)
	require.Len(t, table.Rates, 3)

	usd, ok := table.FindCode("USD")
	require.True(t, ok)
	require.True(t, usd.Mid.Valid)
	assert.Equal(t, "4.0215", usd.Mid.Decimal.String(), "mid must not pick up float drift")

	xdr, ok := table.FindCode("XDR")
	require.True(t, ok)
	assert.False(t, xdr.Mid.Valid, "null mid stays null")
}

func TestClient_FetchCurrentRates_EmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := client.FetchCurrentRates(context.Background())
	assert.Error(t, err)
}

func TestClient_FetchCurrentRates_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchCurrentRates(context.Background())
	assert.Error(t, err)
}

func TestClient_FetchRateHistory(t *testing.T) {
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchangerates/rates/A/USD/2026-07-01/2026-07-31", r.URL.Path)
		w.Write([]byte(usdHistoryPayload))
	})

	points, err := client.FetchRateHistory(context.Background(), "USD", from, to)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, "4.0101", points[0].Mid.String())
	assert.True(t, points[0].Date.Before(points[1].Date), "series arrives oldest first")
}

func TestClient_FetchRateHistory_UnknownCurrency(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.FetchRateHistory(context.Background(), "ZZZ",
		time.Now().AddDate(0, -1, 0), time.Now())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "RATE_003", appErr.Code)
}

func TestClient_FetchRateHistory_ContextCancelled(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.FetchRateHistory(ctx, "USD", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
