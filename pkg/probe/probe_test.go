package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastProber() *Prober {
	return &Prober{
		Interval:       10 * time.Millisecond,
		AttemptTimeout: 100 * time.Millisecond,
		Window:         500 * time.Millisecond,
	}
}

func TestWait_ImmediatelyHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := fastProber().Wait(context.Background(), srv.URL+"/health")
	assert.NoError(t, err)
}

func TestWait_BecomesHealthyAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := fastProber().Wait(context.Background(), srv.URL+"/health")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(4))
}

func TestWait_TimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	start := time.Now()
	err := fastProber().Wait(context.Background(), srv.URL+"/health")
	assert.ErrorIs(t, err, ErrNotReady)
	// Terminates within the window plus a small margin, never hangs.
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWait_ConnectionRefusedSwallowed(t *testing.T) {
	// No listener on this port: every attempt fails at the transport layer.
	err := fastProber().Wait(context.Background(), "http://127.0.0.1:1/health")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestWait_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	p := fastProber()
	p.Window = 10 * time.Second
	err := p.Wait(ctx, srv.URL+"/health")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWait_ZeroValuesUseDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var p Prober
	assert.NoError(t, p.Wait(context.Background(), srv.URL+"/health"))
}
