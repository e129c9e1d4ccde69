package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"freightquote/internal/analytics"
	"freightquote/internal/lead"
	"freightquote/internal/quote"
	"freightquote/internal/rate"
)

// maxBodyBytes caps request bodies; forms and events are tiny.
const maxBodyBytes = 64 << 10

type Options struct {
	Quotes  *quote.Service
	Tracker *analytics.Tracker
	Leads   lead.Store
	Logger  *zap.Logger

	// EventSecret, when set, requires /events payloads to be HMAC signed.
	EventSecret string
	EventRate   float64
	EventBurst  int
	LeadRate    float64
	LeadBurst   int
}

type Server struct {
	quotes      *quote.Service
	tracker     *analytics.Tracker
	leads       lead.Store
	log         *zap.Logger
	eventSecret string
	now         func() time.Time
}

// New builds the API router. Nil dependencies get in-memory defaults.
func New(opts Options) http.Handler {
	s := &Server{
		quotes:      opts.Quotes,
		tracker:     opts.Tracker,
		leads:       opts.Leads,
		log:         opts.Logger,
		eventSecret: opts.EventSecret,
		now:         time.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.quotes == nil {
		s.quotes = quote.NewService(rate.NewSimulated())
	}
	if s.tracker == nil {
		s.tracker = analytics.NewTracker(s.log, analytics.NewLogSink(s.log))
	}
	if s.leads == nil {
		s.leads = lead.NewMemoryStore()
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/carriers", s.handleGetCarriers)
	r.Post("/quotes/validate", s.handleValidateQuote)
	r.Post("/quotes", s.handleCreateQuotes)
	r.With(throttle(opts.LeadRate, opts.LeadBurst)).Post("/leads", s.handleCreateLead)
	r.Get("/leads/{id}", s.handleGetLead)
	r.With(throttle(opts.EventRate, opts.EventBurst)).Post("/events", s.handlePostEvent)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Carriers
type CarriersResponse struct {
	Mode        rate.Mode       `json:"mode"`
	CO2Emission string          `json:"co2_emission"`
	Carriers    []quote.Carrier `json:"carriers"`
}

func (s *Server) handleGetCarriers(w http.ResponseWriter, r *http.Request) {
	mode, ok := rate.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "mode must be one of maritime, air, road")
		return
	}
	writeJSON(w, http.StatusOK, CarriersResponse{
		Mode:        mode,
		CO2Emission: rate.TariffFor(mode).CO2,
		Carriers:    quote.CarriersFor(mode),
	})
}

// Quotes
type QuoteCreateRequest struct {
	quote.Form
	Sort string `json:"sort"`
}

type QuoteCreateResponse struct {
	quote.Result
	Sort quote.SortPreference `json:"sort,omitempty"`
}

type QuoteValidateResponse struct {
	Request quote.Request `json:"request"`
}

func (s *Server) handleValidateQuote(w http.ResponseWriter, r *http.Request) {
	var form quote.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	req, err := quote.Validate(form)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuoteValidateResponse{Request: req})
}

func (s *Server) handleCreateQuotes(w http.ResponseWriter, r *http.Request) {
	var body QuoteCreateRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := quote.Validate(body.Form)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ctx := r.Context()
	s.tracker.StartQuote(ctx, string(req.Mode))
	s.tracker.ClickCTA(ctx, "get_quote", "hero_form")

	quotes, err := s.quotes.Fetch(ctx, req)
	if err != nil {
		s.log.Error("fetch quotes failed",
			zap.String("request_id", w.Header().Get(requestIDHeader)),
			zap.String("mode", string(req.Mode)),
			zap.Error(err))
		if errors.Is(err, quote.ErrGenerationFailed) {
			writeErrorJSON(w, http.StatusServiceUnavailable, "generation_failed", "quotes are unavailable, try again")
			return
		}
		writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	s.tracker.CompleteQuote(ctx, string(req.Mode), len(quotes), quote.LowestPrice(quotes))

	resp := QuoteCreateResponse{Result: quote.NewResult(req, quotes)}
	if body.Sort != "" {
		resp.Sort = quote.ParseSortPreference(body.Sort)
		resp.Quotes = quote.SortBy(quotes, resp.Sort)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Leads
type LeadCreateResponse struct {
	LeadID    string `json:"lead_id"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var in lead.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	l, err := lead.Validate(in, s.now())
	if err != nil {
		writeValidationError(w, err)
		return
	}
	if err := s.leads.Save(r.Context(), l); err != nil {
		s.log.Error("save lead failed", zap.String("lead_id", l.ID.String()), zap.Error(err))
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to save lead")
		return
	}
	s.tracker.SubmitLead(r.Context(), l.Email, l.Phone)
	writeJSON(w, http.StatusCreated, LeadCreateResponse{
		LeadID:    l.ID.String(),
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "id required")
		return
	}
	l, err := s.leads.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, lead.ErrNotFound) {
			writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "not found")
			return
		}
		s.log.Error("load lead failed", zap.String("lead_id", id), zap.Error(err))
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Events
type EventAcceptedResponse struct {
	Event string `json:"event"`
}

func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "read_error", "read error")
		return
	}
	if s.eventSecret != "" {
		if code, msg := verifySignature(s.eventSecret, r.Header.Get(signatureHeader), body); code != "" {
			writeErrorJSON(w, http.StatusUnauthorized, code, msg)
			return
		}
	}

	e, err := NormalizeEvent(body)
	if err != nil {
		if errors.Is(err, ErrMissingEvent) {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "event required")
		} else {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		}
		return
	}
	if err := s.tracker.Track(r.Context(), e); err != nil {
		switch {
		case errors.Is(err, analytics.ErrUnknownEvent):
			writeErrorJSON(w, http.StatusBadRequest, "unknown_event", err.Error())
		case errors.Is(err, analytics.ErrInvalidProperty):
			writeErrorJSON(w, http.StatusBadRequest, "invalid_property", err.Error())
		default:
			writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, EventAcceptedResponse{Event: string(e.Name)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeValidationError adds the per-field errors to the standard error body.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs quote.ValidationErrors
	if !errors.As(err, &verrs) {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error": map[string]string{
			"code":    "validation_failed",
			"message": "some fields are invalid",
		},
		"fields": verrs,
	})
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", w.Header().Get(requestIDHeader)))
	})
}
