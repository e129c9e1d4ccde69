package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"freightquote/internal/analytics"
)

// ErrMissingEvent is returned when a payload does not name an event.
var ErrMissingEvent = errors.New("missing event name")

var (
	eventNameKeys  = []string{"event", "event_name", "name", "data.event"}
	eventPropsKeys = []string{"properties", "params", "data.properties"}
)

// NormalizeEvent maps the payload shapes browsers and tag managers send into an
// analytics.Event. Accepted shapes:
//
//	{"event": "click_cta", "properties": {"cta_name": "x"}}
//	{"event": "click_cta", "cta_name": "x"}              (data-layer push)
//	{"data": {"event": "click_cta", "properties": {...}}}
func NormalizeEvent(body []byte) (analytics.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return analytics.Event{}, err
	}

	name := strings.TrimSpace(getString(payload, eventNameKeys))
	if name == "" {
		return analytics.Event{}, ErrMissingEvent
	}

	props, ok := getAny(payload, eventPropsKeys).(map[string]any)
	if !ok {
		// data-layer push: everything but the event name is a property
		src := payload
		if getString(payload, eventNameKeys[:3]) == "" {
			// the name came from data.event, so data holds the properties
			src, _ = payload["data"].(map[string]any)
		}
		props = make(map[string]any, len(src))
		for k, v := range src {
			if k == "event" || k == "event_name" || k == "name" {
				continue
			}
			props[k] = v
		}
	}
	return analytics.Event{Name: analytics.EventName(name), Properties: props}, nil
}

// getString returns the first non-empty string from the candidate keys.
// Supports dot-path navigation for nested maps.
func getString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// getAny returns the first non-nil value from the candidate keys.
func getAny(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			return v
		}
	}
	return nil
}

// getPath navigates a dot-separated key into nested maps.
func getPath(m map[string]any, path string) any {
	var cur any = m
	for _, p := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}
