// Package nbp implements ports.RateSource against the National Bank of
// Poland public exchange-rate API (table A mid rates).
package nbp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cantor/internal/core/domain"
	"cantor/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the public NBP web API endpoint.
	DefaultBaseURL = "https://api.nbp.pl/api"

	dateLayout = "2006-01-02"
)

// errNotFound marks a 404 from the API, which NBP answers for currency
// codes it does not quote.
var errNotFound = errors.New("nbp: not found")

// Client is an HTTP client for the NBP exchange-rate API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Client. baseURL falls back to DefaultBaseURL when
// empty; timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// tableResponse mirrors the NBP tables endpoint payload. Mids arrive as
// JSON numbers; decoding through decimal avoids float drift.
type tableResponse struct {
	Table         string `json:"table"`
	No            string `json:"no"`
	EffectiveDate string `json:"effectiveDate"`
	Rates         []struct {
		Currency string              `json:"currency"`
		Code     string              `json:"code"`
		Mid      decimal.NullDecimal `json:"mid"`
	} `json:"rates"`
}

// historyResponse mirrors the NBP per-code rates endpoint payload.
type historyResponse struct {
	Table    string `json:"table"`
	Currency string `json:"currency"`
	Code     string `json:"code"`
	Rates    []struct {
		No            string          `json:"no"`
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// FetchCurrentRates returns the latest table A snapshot.
func (c *Client) FetchCurrentRates(ctx context.Context) (*domain.RateTable, error) {
	endpoint := fmt.Sprintf("%s/exchangerates/tables/A?format=json", c.baseURL)

	var tables []tableResponse
	if err := c.getJSON(ctx, endpoint, &tables); err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("nbp: empty table response")
	}

	t := tables[0]
	table := &domain.RateTable{
		Table:         t.Table,
		No:            t.No,
		EffectiveDate: t.EffectiveDate,
		Rates:         make([]domain.Rate, 0, len(t.Rates)),
	}
	for _, r := range t.Rates {
		table.Rates = append(table.Rates, domain.Rate{
			Currency: r.Currency,
			Code:     r.Code,
			Mid:      r.Mid,
		})
	}

	c.log.Debug().
		Str("effective_date", table.EffectiveDate).
		Int("rates", len(table.Rates)).
		Msg("fetched current rate table")

	return table, nil
}

// FetchRateHistory returns the mid-rate series for one code over a closed
// date window, oldest first. An unknown code maps to RATE_003.
func (c *Client) FetchRateHistory(ctx context.Context, code string, from, to time.Time) ([]domain.RatePoint, error) {
	endpoint := fmt.Sprintf("%s/exchangerates/rates/A/%s/%s/%s?format=json",
		c.baseURL,
		url.PathEscape(code),
		from.Format(dateLayout),
		to.Format(dateLayout),
	)

	var history historyResponse
	if err := c.getJSON(ctx, endpoint, &history); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, apperror.ErrUnknownCurrency(code)
		}
		return nil, err
	}

	points := make([]domain.RatePoint, 0, len(history.Rates))
	for _, r := range history.Rates {
		date, err := time.Parse(dateLayout, r.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("nbp: parse effective date %q: %w", r.EffectiveDate, err)
		}
		points = append(points, domain.RatePoint{Date: date, Mid: r.Mid})
	}

	c.log.Debug().
		Str("code", code).
		Int("points", len(points)).
		Msg("fetched rate history")

	return points, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("nbp: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nbp: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("nbp: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nbp: decode response: %w", err)
	}
	return nil
}
