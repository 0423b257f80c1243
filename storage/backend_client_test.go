package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtor-extractor/models"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBackendClient(srv.URL+"/", time.Second, nil)
}

func TestBackendClient_Health(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, c.Health(context.Background()))
}

func TestBackendClient_CheckDuplicate(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/check-duplicate", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://x.test/agent", body["url"])

		_, _ = w.Write([]byte(`{"isDuplicate":true,"existing":{"agent_id":"abc","name":"Jane Doe"}}`))
	})

	got, err := c.CheckDuplicate(context.Background(), "https://x.test/agent")
	require.NoError(t, err)
	assert.True(t, got.IsDuplicate)
	require.NotNil(t, got.Existing)
	assert.Equal(t, "Jane Doe", models.Deref(got.Existing.Name))
}

func TestBackendClient_CheckDuplicateServerError(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	got, err := c.CheckDuplicate(context.Background(), "https://x.test/agent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
	assert.False(t, got.IsDuplicate)
}

func TestBackendClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewBackendClient(srv.URL, time.Second, nil)

	_, err := c.CheckDuplicate(context.Background(), "https://x.test/agent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
}

func TestBackendClient_Submit(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agents", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var p models.AgentProfile
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "5f1a2b3c4d", p.AgentID)
		assert.Len(t, p.Properties, 2)

		_, _ = w.Write([]byte(`{"success":true,"id":"agent-17"}`))
	})

	res, err := c.Submit(context.Background(), sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{Success: true, ID: "agent-17"}, res)
}

func TestBackendClient_SubmitRejected(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	res, err := c.Submit(context.Background(), sampleProfile())
	require.Error(t, err)
	assert.False(t, res.Success)
}
