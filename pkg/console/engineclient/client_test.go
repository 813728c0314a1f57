package engineclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.NoError(t, c.Health(context.Background()))
}

func TestHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := New(srv.URL, WithTimeout(time.Second)).Health(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spec/info", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Petstore","version":"1.0.0"}`))
	}))
	defer srv.Close()

	info, err := New(srv.URL).Info(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Petstore","version":"1.0.0"}`, string(info))
}

func TestInfo_InvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Info(context.Background())
	assert.Error(t, err)
}

func TestEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spec/endpoints", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"endpoints":[{"method":"GET","path":"/pets"},{"method":"POST","path":"/pets","summary":"Create a pet"}]}`))
	}))
	defer srv.Close()

	eps, err := New(srv.URL).Endpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, Endpoint{Method: "GET", Path: "/pets"}, eps[0])
	assert.Equal(t, "Create a pet", eps[1].Summary)
}

func TestEndpoints_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal","message":"spec not loaded"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Endpoints(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec not loaded")
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := New(srv.URL).Health(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}
