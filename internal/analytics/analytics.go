// Package analytics records user-journey events and hands them to the
// configured collectors.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EventName identifies a tracked interaction.
type EventName string

const (
	ViewQuote     EventName = "view_quote"
	SubmitLead    EventName = "submit_lead"
	StartQuote    EventName = "start_quote"
	CompleteQuote EventName = "complete_quote"
	ClickCTA      EventName = "click_cta"
	ClickChat     EventName = "click_chat"
	ABVariant     EventName = "a_b_variant"
)

var knownEvents = map[EventName]bool{
	ViewQuote: true, SubmitLead: true, StartQuote: true, CompleteQuote: true,
	ClickCTA: true, ClickChat: true, ABVariant: true,
}

// Known reports whether name is a tracked event.
func (n EventName) Known() bool { return knownEvents[n] }

// ChatType is the channel a visitor opened from the chat widget.
type ChatType string

const (
	ChatWhatsApp ChatType = "whatsapp"
	ChatLive     ChatType = "livechat"
)

// Valid reports whether c is one of the offered chat channels.
func (c ChatType) Valid() bool { return c == ChatWhatsApp || c == ChatLive }

var (
	ErrUnknownEvent    = errors.New("unknown event")
	ErrInvalidProperty = errors.New("invalid event property")
)

// Event is one tracked interaction with flat scalar properties.
type Event struct {
	Name       EventName      `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Validate checks the name and that every property is a string, number or bool.
func (e Event) Validate() error {
	if !e.Name.Known() {
		return errors.Wrapf(ErrUnknownEvent, "%q", e.Name)
	}
	for k, v := range e.Properties {
		if !isScalar(v) {
			return errors.Wrapf(ErrInvalidProperty, "%s has type %T", k, v)
		}
	}
	if e.Name == ClickChat {
		if c, _ := e.Properties["chat_type"].(string); !ChatType(c).Valid() {
			return errors.Wrapf(ErrInvalidProperty, "chat_type must be %s or %s", ChatWhatsApp, ChatLive)
		}
	}
	return nil
}

// DataLayer flattens the event the way tag managers expect it:
// {"event": name, prop: value, ...}.
func (e Event) DataLayer() map[string]any {
	out := make(map[string]any, len(e.Properties)+1)
	for k, v := range e.Properties {
		out[k] = v
	}
	out["event"] = string(e.Name)
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// Sink delivers events to one collector.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Tracker validates events and fans them out to its sinks.
// Sink failures are logged and dropped; delivery is the collector's concern.
type Tracker struct {
	log   *zap.Logger
	sinks []Sink
}

// NewTracker returns a Tracker writing to sinks. A nil logger is replaced by zap.NewNop().
func NewTracker(log *zap.Logger, sinks ...Sink) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{log: log, sinks: sinks}
}

// Track validates e and sends it to every sink.
func (t *Tracker) Track(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	for _, s := range t.sinks {
		if err := s.Send(ctx, e); err != nil {
			t.log.Warn("analytics sink failed",
				zap.String("event", string(e.Name)),
				zap.String("sink", fmt.Sprintf("%T", s)),
				zap.Error(err))
		}
	}
	return nil
}

func (t *Tracker) track(ctx context.Context, name EventName, props map[string]any) {
	// helpers only build well-formed events
	_ = t.Track(ctx, Event{Name: name, Properties: props})
}

func (t *Tracker) ViewQuote(ctx context.Context, quoteID, carrier string, price float64) {
	t.track(ctx, ViewQuote, map[string]any{"quote_id": quoteID, "carrier": carrier, "price": price})
}

func (t *Tracker) SubmitLead(ctx context.Context, email, phone string) {
	t.track(ctx, SubmitLead, map[string]any{"has_email": email != "", "has_phone": phone != ""})
}

func (t *Tracker) StartQuote(ctx context.Context, mode string) {
	t.track(ctx, StartQuote, map[string]any{"transport_mode": mode})
}

func (t *Tracker) CompleteQuote(ctx context.Context, mode string, quotesCount int, lowestPrice float64) {
	t.track(ctx, CompleteQuote, map[string]any{
		"transport_mode": mode,
		"quotes_count":   quotesCount,
		"lowest_price":   lowestPrice,
	})
}

func (t *Tracker) ClickCTA(ctx context.Context, ctaName, location string) {
	t.track(ctx, ClickCTA, map[string]any{"cta_name": ctaName, "location": location})
}

func (t *Tracker) ClickChat(ctx context.Context, chatType ChatType) {
	t.track(ctx, ClickChat, map[string]any{"chat_type": string(chatType)})
}

func (t *Tracker) ABVariant(ctx context.Context, testName, variant string) {
	t.track(ctx, ABVariant, map[string]any{"test_name": testName, "variant": variant})
}

// LogSink writes every event to a zap logger.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Send(_ context.Context, e Event) error {
	s.log.Info("analytics", zap.String("event", string(e.Name)), zap.Any("properties", e.Properties))
	return nil
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Send(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns the recorded events called name.
func (r *Recorder) Named(name EventName) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
