package domain

import (
	"github.com/google/uuid"
)

// Watchlist is a named, user-curated collection of pinned currency rates.
// The ID is a stable surrogate key: renaming a watchlist never changes its
// identity, so references held elsewhere survive a rename. Names stay
// unique within one user's collection.
type Watchlist struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Rates []Rate    `json:"rates"`
}

// NewWatchlist creates an empty watchlist with a fresh surrogate ID.
func NewWatchlist(name string) Watchlist {
	return Watchlist{
		ID:    uuid.New(),
		Name:  name,
		Rates: []Rate{},
	}
}

// ContainsCode reports whether a rate with the given currency code is pinned.
func (w *Watchlist) ContainsCode(code string) bool {
	for i := range w.Rates {
		if w.Rates[i].Code == code {
			return true
		}
	}
	return false
}

// AddRate pins a rate snapshot. Adding a code that is already pinned is a
// no-op; returns whether the collection changed.
func (w *Watchlist) AddRate(rate Rate) bool {
	if w.ContainsCode(rate.Code) {
		return false
	}
	w.Rates = append(w.Rates, rate)
	return true
}

// RemoveRate unpins the rate with the given code; returns whether it was
// present.
func (w *Watchlist) RemoveRate(code string) bool {
	for i := range w.Rates {
		if w.Rates[i].Code == code {
			w.Rates = append(w.Rates[:i], w.Rates[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (w *Watchlist) Clone() Watchlist {
	cp := *w
	cp.Rates = make([]Rate, len(w.Rates))
	copy(cp.Rates, w.Rates)
	return cp
}
