package quote

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"freightquote/internal/rate"
)

// ErrGenerationFailed is matched by every GenerationFailure.
var ErrGenerationFailed = errors.New("quote generation failed")

// GenerationFailure reports that a quote fetch was rejected.
// The caller should log it and leave its state as it was before submitting.
type GenerationFailure struct {
	Mode rate.Mode
	Err  error
}

func (e *GenerationFailure) Error() string {
	if e.Err == nil {
		return ErrGenerationFailed.Error()
	}
	return ErrGenerationFailed.Error() + ": " + e.Err.Error()
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

func (e *GenerationFailure) Is(target error) bool { return target == ErrGenerationFailed }

// Default simulated latency window.
const (
	DefaultMinLatency = 800 * time.Millisecond
	DefaultMaxLatency = 1500 * time.Millisecond
)

// Service fetches quotes the way a remote rate-shopping API would,
// including its latency.
type Service struct {
	est        rate.Estimator
	minLatency time.Duration
	maxLatency time.Duration
	failure    func(Request) error

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithLatency sets the simulated latency window. Zero values disable the delay.
func WithLatency(lo, hi time.Duration) Option {
	return func(s *Service) {
		if hi < lo {
			hi = lo
		}
		s.minLatency, s.maxLatency = lo, hi
	}
}

// WithSeed makes generation deterministic.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.rnd = rand.New(rand.NewSource(seed)) }
}

// WithFailureHook installs a hook consulted before each generation.
// A non-nil return rejects the fetch with a GenerationFailure.
func WithFailureHook(fn func(Request) error) Option {
	return func(s *Service) { s.failure = fn }
}

// NewService returns a Service backed by est. A nil est means rate.NewSimulated().
func NewService(est rate.Estimator, opts ...Option) *Service {
	if est == nil {
		est = rate.NewSimulated()
	}
	s := &Service{
		est:        est,
		minLatency: DefaultMinLatency,
		maxLatency: DefaultMaxLatency,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch waits for the simulated latency and then generates quotes for req.
func (s *Service) Fetch(ctx context.Context, req Request) ([]CarrierQuote, error) {
	if d := s.latency(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, &GenerationFailure{Mode: req.Mode, Err: ctx.Err()}
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, &GenerationFailure{Mode: req.Mode, Err: err}
	}

	if s.failure != nil {
		if err := s.failure(req); err != nil {
			return nil, &GenerationFailure{Mode: req.Mode, Err: err}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Generate(req, s.est, s.rnd), nil
}

func (s *Service) latency() time.Duration {
	if s.maxLatency <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.maxLatency - s.minLatency
	if span <= 0 {
		return s.minLatency
	}
	return s.minLatency + time.Duration(s.rnd.Int63n(int64(span)))
}
