package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightquote/internal/analytics"
	"freightquote/internal/quote"
	"freightquote/internal/rate"
)

// helper to parse standardized error
type stdError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Fields map[string]quote.FieldError `json:"fields"`
}

func parseError(t *testing.T, body []byte) stdError {
	t.Helper()
	var e stdError
	require.NoError(t, json.Unmarshal(body, &e), "body=%s", body)
	return e
}

func TestCarriers_InvalidMode_ErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/carriers?mode=rail", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_request", parseError(t, rr.Body.Bytes()).Error.Code)
}

func TestQuotes_InvalidJSON_ErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/quotes", `{"origin":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", parseError(t, rr.Body.Bytes()).Error.Code)
}

func TestQuotes_ValidationFailed_ErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/quotes", `{"origin":"SP","destination":"","weight":"0.09","mode":"rail"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	e := parseError(t, rr.Body.Bytes())
	assert.Equal(t, "validation_failed", e.Error.Code)
	assert.Equal(t, quote.CodeInvalid, e.Fields["origin"].Code)
	assert.Equal(t, quote.CodeRequired, e.Fields["destination"].Code)
	assert.Equal(t, quote.CodeRange, e.Fields["weight"].Code)
	assert.Equal(t, quote.CodeRequired, e.Fields["mode"].Code)
	assert.Empty(t, env.events.Events(), "rejected forms are not tracked")
}

func TestQuotes_GenerationFailed_ErrorJSON(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.Quotes = quote.NewService(rate.NewSimulated(), quote.WithLatency(0, 0), quote.WithFailureHook(func(quote.Request) error {
			return errors.New("carrier api timeout")
		}))
	})
	rr := env.do(http.MethodPost, "/quotes", `{"origin":"Santos","destination":"Belém","weight":"10","mode":"air"}`)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code, rr.Body.String())
	assert.Equal(t, "generation_failed", parseError(t, rr.Body.Bytes()).Error.Code)
	assert.Empty(t, env.events.Named(analytics.CompleteQuote))
}

func TestEvents_UnknownEvent_ErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/events", `{"event":"scroll_depth","percent":50}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "unknown_event", parseError(t, rr.Body.Bytes()).Error.Code)
}

func TestEvents_MissingEvent_ErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/events", `{"cta_name":"x"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_request", parseError(t, rr.Body.Bytes()).Error.Code)
}

func TestEvents_NestedProperty_ErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/events", `{"event":"click_cta","properties":{"cta_name":"x","location":["hero"]}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_property", parseError(t, rr.Body.Bytes()).Error.Code)
}

func TestEvents_UnknownChatType_ErrorJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/events", `{"event":"click_chat","chat_type":"telegram"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_property", parseError(t, rr.Body.Bytes()).Error.Code)
	assert.Empty(t, env.events.Events())
}

func TestEvents_InvalidSignatureFormat_ErrorJSON(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.EventSecret = "dummysecret" })
	for header, code := range map[string]string{
		"":             "missing_signature",
		"ZZZ":          "invalid_signature_format",
		"sha256=00ff1": "invalid_signature_format",
		"sha256=00ff":  "signature_mismatch",
	} {
		req := newRequest(http.MethodPost, "/events", `{"event":"click_chat","chat_type":"whatsapp"}`)
		if header != "" {
			req.Header.Set("X-Signature", header)
		}
		rr := serve(env.handler, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code, "header=%q", header)
		assert.Equal(t, code, parseError(t, rr.Body.Bytes()).Error.Code, "header=%q", header)
	}
	assert.Empty(t, env.events.Events())
}

func TestLeads_RateLimited_ErrorJSON(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.LeadRate = 0.001
		o.LeadBurst = 1
	})
	rr := env.do(http.MethodPost, "/leads", `{"email":"a@b.co"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(http.MethodPost, "/leads", `{"email":"c@d.co"}`)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate_limited", parseError(t, rr.Body.Bytes()).Error.Code)
}
