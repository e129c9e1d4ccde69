// Package lead captures contact details left by visitors asking for a quote.
package lead

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"freightquote/internal/quote"
	"freightquote/internal/rate"
)

// Input is the raw lead form.
type Input struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Mode        string          `json:"mode"`
	Weight      quote.FormValue `json:"weight"`
}

// Lead is a validated contact request.
type Lead struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Mode        rate.Mode `json:"mode,omitempty"`
	WeightKg    float64   `json:"weight,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks a lead form. Email and phone follow the quote form rules and
// at least one of them must be given. Route fields are optional context.
func Validate(in Input, now time.Time) (Lead, error) {
	errs := quote.ValidationErrors{}
	l := Lead{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Email:       quote.ValidateEmail(errs, "email", in.Email),
		Phone:       quote.ValidatePhone(errs, "phone", in.Phone),
		Origin:      strings.TrimSpace(in.Origin),
		Destination: strings.TrimSpace(in.Destination),
		WeightKg:    quote.ParseNumber(string(in.Weight)),
		CreatedAt:   now.UTC(),
	}
	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Phone) == "" {
		errs["contact"] = quote.FieldError{Code: quote.CodeRequired, Message: "leave an email or a phone number"}
	}
	if in.Mode != "" {
		if m, ok := rate.ParseMode(in.Mode); ok {
			l.Mode = m
		} else {
			errs["mode"] = quote.FieldError{Code: quote.CodeInvalid, Message: "select a transport mode"}
		}
	}
	if len(errs) > 0 {
		return Lead{}, errs
	}
	return l, nil
}

// ErrNotFound is returned by Get for unknown or malformed ids.
var ErrNotFound = errors.New("lead not found")

// Store persists leads.
type Store interface {
	Save(ctx context.Context, l Lead) error
	Get(ctx context.Context, id string) (Lead, error)
}

// MemoryStore keeps leads in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	leads map[uuid.UUID]Lead
	order []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: map[uuid.UUID]Lead{}}
}

// Save stores l. Saving the same id twice keeps the first copy.
func (m *MemoryStore) Save(_ context.Context, l Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[l.ID]; ok {
		return nil
	}
	m.leads[l.ID] = l
	m.order = append(m.order, l.ID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Lead, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[key]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

// All returns the stored leads in insertion order.
func (m *MemoryStore) All() []Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Lead, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.leads[id])
	}
	return out
}
