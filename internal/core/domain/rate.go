package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is one row of the published exchange-rate table: a currency and its
// current mid-market price against the home currency. Mid is null when the
// source publishes the currency without a quote.
type Rate struct {
	Currency string              `json:"currency"`
	Code     string              `json:"code"`
	Mid      decimal.NullDecimal `json:"mid"`
}

// RateTable is a full snapshot of the published mid rates.
type RateTable struct {
	Table         string `json:"table"`
	No            string `json:"no"`
	EffectiveDate string `json:"effective_date"`
	Rates         []Rate `json:"rates"`
}

// FindCode returns the rate for a currency code, if present.
func (t *RateTable) FindCode(code string) (Rate, bool) {
	for i := range t.Rates {
		if t.Rates[i].Code == code {
			return t.Rates[i], true
		}
	}
	return Rate{}, false
}

// RatePoint is one sample of a historical rate series.
type RatePoint struct {
	Date time.Time       `json:"date"`
	Mid  decimal.Decimal `json:"mid"`
}
