// Package session models the quote page as an immutable state value and a
// reducer that derives the next state from each user action.
package session

import (
	"freightquote/internal/quote"
)

// State is a snapshot of one visitor's quote flow. Treat it as a value.
type State struct {
	Request  *quote.Request
	Loading  bool
	Quotes   []quote.CarrierQuote
	SortBy   quote.SortPreference
	Booked   *quote.CarrierQuote
	LastErr  error
	Attempts int

	// prev is the state a pending fetch falls back to if it fails.
	prev *State
}

// Initial is the state before anything was submitted.
func Initial() State {
	return State{SortBy: quote.SortPrice}
}

// Visible returns the quotes in the selected display order.
func (s State) Visible() []quote.CarrierQuote {
	return quote.SortBy(s.Quotes, s.SortBy)
}

// Action is a user or system event applied by Reduce.
type Action interface {
	apply(State) State
}

// Submit starts a fetch for a validated request. It replaces any shown result.
type Submit struct{ Request quote.Request }

// Loaded delivers the quotes of the pending fetch.
type Loaded struct{ Quotes []quote.CarrierQuote }

// Failed reports a rejected fetch.
type Failed struct{ Err error }

// ChangeSort switches the display order.
type ChangeSort struct{ Preference quote.SortPreference }

// Book selects one of the shown quotes.
type Book struct{ QuoteID string }

// Reset goes back to an empty form.
type Reset struct{}

// Reduce returns the state that follows s after a. s is never modified.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func (a Submit) apply(s State) State {
	before := s
	before.Loading = false
	before.prev = nil
	req := a.Request
	return State{
		Request:  &req,
		Loading:  true,
		SortBy:   s.SortBy,
		Attempts: s.Attempts + 1,
		prev:     &before,
	}
}

func (a Loaded) apply(s State) State {
	if !s.Loading {
		return s
	}
	next := s
	next.Loading = false
	next.Quotes = append([]quote.CarrierQuote(nil), a.Quotes...)
	next.LastErr = nil
	next.prev = nil
	return next
}

// A failed fetch leaves the page as it was before submitting, including any
// result that was on screen.
func (a Failed) apply(s State) State {
	if !s.Loading {
		return s
	}
	restored := State{}
	if s.prev != nil {
		restored = *s.prev
	}
	restored.SortBy = s.SortBy
	restored.LastErr = a.Err
	restored.Attempts = s.Attempts
	return restored
}

func (a ChangeSort) apply(s State) State {
	next := s
	next.SortBy = a.Preference
	return next
}

func (a Book) apply(s State) State {
	for _, q := range s.Quotes {
		if q.ID == a.QuoteID {
			next := s
			booked := q
			next.Booked = &booked
			return next
		}
	}
	return s
}

func (Reset) apply(s State) State {
	next := Initial()
	next.SortBy = s.SortBy
	next.Attempts = s.Attempts
	return next
}
