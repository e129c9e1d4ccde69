package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightquote/internal/analytics"
	"freightquote/internal/db"
	"freightquote/internal/lead"
)

type brokenStore struct{}

func (brokenStore) Save(context.Context, lead.Lead) error { return errors.New("disk full") }

func (brokenStore) Get(context.Context, string) (lead.Lead, error) {
	return lead.Lead{}, errors.New("disk full")
}

func TestCreateLead(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/leads", `{"name":"Ana","email":"ana@cargo.com.br","phone":"(11) 98765-4321","origin":"Santos","mode":"maritime","weight":1200}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res LeadCreateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.NotEmpty(t, res.LeadID)
	_, err := time.Parse(time.RFC3339, res.CreatedAt)
	assert.NoError(t, err)

	saved := env.leads.All()
	require.Len(t, saved, 1)
	assert.Equal(t, res.LeadID, saved[0].ID.String())
	assert.Equal(t, "11987654321", saved[0].Phone)
	assert.Equal(t, 1200.0, saved[0].WeightKg)

	ev := env.events.Named(analytics.SubmitLead)
	require.Len(t, ev, 1)
	assert.Equal(t, map[string]any{"has_email": true, "has_phone": true}, ev[0].Properties)
}

func TestGetLead(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/leads", `{"name":"Ana","email":"ana@cargo.com.br","mode":"air"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created LeadCreateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = env.do(http.MethodGet, "/leads/"+created.LeadID, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got lead.Lead
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.LeadID, got.ID.String())
	assert.Equal(t, "ana@cargo.com.br", got.Email)
	assert.Equal(t, "air", string(got.Mode))

	rr = env.do(http.MethodGet, "/leads/5d9c1f3e-0000-4000-8000-000000000000", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "resource_not_found", parseError(t, rr.Body.Bytes()).Error.Code)

	rr = env.do(http.MethodGet, "/leads/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetLead_StoreFailure(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Leads = brokenStore{} })
	rr := env.do(http.MethodGet, "/leads/5d9c1f3e-0000-4000-8000-000000000000", nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "db_error", parseError(t, rr.Body.Bytes()).Error.Code)
}

func TestCreateLead_Invalid(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/leads", `{"name":"Ana","email":"ana@"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	e := parseError(t, rr.Body.Bytes())
	assert.Equal(t, "invalid", e.Fields["email"].Code)
	assert.Empty(t, env.leads.All())
	assert.Empty(t, env.events.Events())
}

func TestCreateLead_StoreFailure(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Leads = brokenStore{} })
	rr := env.do(http.MethodPost, "/leads", `{"phone":"11987654321"}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "db_error", parseError(t, rr.Body.Bytes()).Error.Code)
	assert.Empty(t, env.events.Events())
}

func TestCreateLead_Postgres(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pool, err := db.NewPool(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()

	store := lead.NewPGStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))
	env := newTestEnv(t, func(o *Options) { o.Leads = store })

	rr := env.do(http.MethodPost, "/leads", `{"email":"pg@cargo.com.br","mode":"road"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res LeadCreateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	got, err := store.Get(ctx, res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "pg@cargo.com.br", got.Email)
}
