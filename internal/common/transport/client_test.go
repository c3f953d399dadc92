package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "ats-client/internal/common/errors"
)

func TestClient_AttachesAndClearsBearerToken(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second)
	ctx := context.Background()

	req, err := client.NewRequest(ctx, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	resp, err := client.Do("test", "op", req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, seen)

	client.SetBearerToken("tok-1")
	req, _ = client.NewRequest(ctx, http.MethodGet, "/x", nil)
	resp, err = client.Do("test", "op", req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer tok-1", seen)

	client.ClearBearerToken()
	req, _ = client.NewRequest(ctx, http.MethodGet, "/x", nil)
	resp, err = client.Do("test", "op", req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, seen)
}

func TestClient_SetsRequestID(t *testing.T) {
	client := NewClient("http://localhost", time.Second)
	req, err := client.NewRequest(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
}

func TestClient_TimeoutBecomesNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 20*time.Millisecond)
	req, err := client.NewRequest(context.Background(), http.MethodGet, "/slow", nil)
	require.NoError(t, err)

	_, err = client.Do("test", "slow", req)

	require.Error(t, err)
	ce := clierrors.AsClientError(err)
	assert.Equal(t, clierrors.KindNetwork, ce.Kind)
	assert.True(t, ce.Retryable)
}

func TestClient_CancelledRequestIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	req, err := client.NewRequest(ctx, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	cancel()

	_, err = client.Do("test", "cancelled", req)

	require.Error(t, err)
	ce := clierrors.AsClientError(err)
	assert.Equal(t, clierrors.KindNetwork, ce.Kind)
	assert.False(t, ce.Retryable, "an operator-cancelled request is never re-attempted")
	assert.False(t, clierrors.IsRetryable(err))
}

func TestClient_ConnectionRefusedBecomesNetworkError(t *testing.T) {
	// Port 1 is essentially never listening.
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond)
	req, err := client.NewRequest(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)

	_, err = client.Do("test", "refused", req)

	require.Error(t, err)
	assert.True(t, clierrors.IsRetryable(err))
}

func TestURLJoining(t *testing.T) {
	client := NewClient("http://api.example.com/base/", time.Second)
	assert.Equal(t, "http://api.example.com/base/applicants", client.URL("applicants"))
	assert.Equal(t, "http://api.example.com/base/applicants", client.URL("/applicants"))
}
