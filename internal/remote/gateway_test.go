package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type toggles struct {
	mu     sync.Mutex
	values []bool
}

func (t *toggles) record(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = append(t.values, v)
}

func (t *toggles) all() []bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]bool(nil), t.values...)
}

func TestGatewayGetSendsQueryString(t *testing.T) {
	var loadingDuringCall bool
	var gw *Gateway

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loadingDuringCall = gw.Indicator().Loading()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "listings", r.URL.Query().Get("action"))
		assert.Equal(t, "available", r.URL.Query().Get("status"))
		assert.Equal(t, "v1", r.URL.Query().Get("key"), "existing endpoint query is preserved")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"R1"}]}`))
	}))
	defer srv.Close()

	flips := &toggles{}
	gw = NewGateway(srv.URL+"?key=v1", Options{Indicator: NewIndicator(flips.record)})

	data, err := gw.Call(context.Background(), "listings", http.MethodGet, map[string]any{"status": "available"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"R1"}]`, string(data))
	assert.True(t, loadingDuringCall)
	assert.False(t, gw.Indicator().Loading())
	assert.Equal(t, []bool{true, false}, flips.all())
}

func TestGatewayPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "createUser", body["action"])
		assert.Equal(t, "+91-9876543210", body["phone"])
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"phone":"+91-9876543210"}}}`))
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, Options{})
	data, err := gw.Call(context.Background(), "createUser", http.MethodPost, map[string]any{"phone": "+91-9876543210"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"user"`)
}

func TestGatewayFailuresAreUnavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-success status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"unparseable body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>quota exceeded</html>`))
		},
		"explicit failure flag": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error":"sheet locked"}`))
		},
		"missing success flag": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			flips := &toggles{}
			gw := NewGateway(srv.URL, Options{Indicator: NewIndicator(flips.record)})

			data, err := gw.Call(context.Background(), "listings", http.MethodGet, nil)
			assert.Nil(t, data)
			assert.True(t, errors.Is(err, ErrUnavailable))
			assert.Equal(t, []bool{true, false}, flips.all(), "indicator cleared on failure")
		})
	}
}

func TestGatewayPlaceholderEndpointNeverDials(t *testing.T) {
	for _, endpoint := range []string{"", "https://script.google.com/macros/s/REPLACE_WITH_YOUR_ID/exec"} {
		gw := NewGateway(endpoint, Options{})
		assert.False(t, gw.Configured())

		_, err := gw.Call(context.Background(), "listings", http.MethodGet, nil)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, gw.Indicator().Loading())
	}
}

func TestGatewayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, Options{Timeout: 30 * time.Millisecond})

	start := time.Now()
	_, err := gw.Call(context.Background(), "listings", http.MethodGet, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGatewayRateLimiterFailureIsUnavailable(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, Options{Limiter: rate.NewLimiter(0, 0)})

	_, err := gw.Call(context.Background(), "listings", http.MethodGet, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, called)
}

func TestGatewayUnsupportedMethod(t *testing.T) {
	gw := NewGateway("https://example.invalid/exec", Options{})
	_, err := gw.Call(context.Background(), "listings", http.MethodDelete, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
