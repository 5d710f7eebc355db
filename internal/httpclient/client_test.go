package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nishad/geopool/internal/config"
	"github.com/nishad/geopool/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(retries int) Options {
	return Options{
		Timeout:    5 * time.Second,
		MaxRetries: retries,
		RetryWait:  time.Millisecond,
		UserAgent:  "geopool-test",
	}
}

func TestGetSuccessForwardsParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gds", r.URL.Query().Get("db"))
		assert.Equal(t, "SRP000001[ACCN]", r.URL.Query().Get("term"))
		assert.Equal(t, "geopool-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := New(testOptions(1))
	body, err := c.Get(context.Background(), ts.URL, map[string]string{"db": "gds", "term": "SRP000001[ACCN]"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGetRetriesOnceThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	body, err := New(testOptions(1)).Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetRetriesOnOverloadMarkerInBody(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte("<html><h1>Error 503</h1> Backend unavailable</html>"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := New(testOptions(1)).WithOverloadMarker("Error 503")
	body, err := c.Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetIgnoresBodyMarkerByDefault(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("<TITLE>Rescue of Error 503 phenotype in liver</TITLE>"))
	}))
	defer ts.Close()

	c := New(testOptions(1))
	body, err := c.Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Error 503")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// The marked copy shares the transport but not the marker.
	_, err = c.WithOverloadMarker("Error 503").Get(context.Background(), ts.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	_, err = c.Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
}

func TestGetRetriesAreBounded(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := New(testOptions(2)).Get(context.Background(), ts.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.True(t, errors.IsKind(err, errors.KindNetwork))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetNoRetryWhenDisabled(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := New(testOptions(0)).Get(context.Background(), ts.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "forbidden"},
		{http.StatusNotFound, "not found"},
		{http.StatusInternalServerError, "unexpected status 500"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			_, err := New(testOptions(1)).Get(context.Background(), ts.URL, nil)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindNetwork))
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "non-overload statuses are not retried")
		})
	}
}

func TestGetTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := New(testOptions(0)).Get(context.Background(), url, nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNetwork))
}

func TestGetCancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := testOptions(0)
	opts.RequestsPerSecond = 1
	_, err := New(opts).Get(ctx, ts.URL, nil)
	require.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := OptionsFromConfig(cfg)

	assert.Equal(t, 1, opts.MaxRetries)
	assert.Equal(t, 20*time.Second, opts.RetryWait)
	assert.Equal(t, 120*time.Second, opts.Timeout)
	assert.Equal(t, float64(3), opts.RequestsPerSecond)
}
