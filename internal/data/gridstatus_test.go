package data_test

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
	"go.uber.org/zap"

	"pfline/internal/data"
)

const testKey = "test-api-key-123"

const sampleBody = `{
  "status_code": 200,
  "data": [
    {
      "interval_start_utc": "2024-01-01T00:00:00Z",
      "interval_end_utc": "2024-01-01T01:00:00Z",
      "market": "REAL_TIME_HOURLY",
      "location": "TH_NP15_GEN-APND",
      "location_type": "Trading Hub",
      "lmp": 42.5,
      "energy": 40,
      "congestion": 2,
      "loss": 0.5,
      "ghg": 0
    }
  ]
}`

func params() data.QueryLocationParams {
	return data.QueryLocationParams{
		DatasetID:  "caiso_lmp_real_time_hourly",
		LocationID: "TH_NP15_GEN-APND",
		StartTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestQueryLocation_Success(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v1/datasets/caiso_lmp_real_time_hourly/query/location/TH_NP15_GEN-APND", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("x-api-key"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_time"))
		assert.Equal(t, "market", r.URL.Query().Get("timezone"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := data.NewGridStatusClient(testKey, srv.URL, zap.NewNop())
	c.Cache = data.NewResponseCache(time.Minute)

	resp, err := c.QueryLocation(context.Background(), params())
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 42.5, resp.Data[0].LMP)
	assert.Equal(t, time.Hour, resp.Data[0].Duration())

	_, err = c.QueryLocation(context.Background(), params())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second call is served from the cache")
}

func TestQueryLocation_StatusErrors(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusForbidden, "INVALID_API_KEY"},
		{http.StatusUnauthorized, "UNAUTHORIZED"},
		{http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{http.StatusInternalServerError, "API_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := data.NewGridStatusClient(testKey, srv.URL, nil)
			_, err := c.QueryLocation(context.Background(), params())
			var gsErr *data.GridStatusError
			require.True(t, errors.As(err, &gsErr))
			assert.Equal(t, tc.code, gsErr.Code)
			assert.Equal(t, tc.status, gsErr.StatusCode)
		})
	}
}

func TestQueryLocation_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := data.NewGridStatusClient("", "", nil).QueryLocation(ctx, params())
	var gsErr *data.GridStatusError
	require.True(t, errors.As(err, &gsErr))
	assert.Equal(t, "MISSING_API_KEY", gsErr.Code)

	_, err = data.NewGridStatusClient("short", "", nil).QueryLocation(ctx, params())
	require.True(t, errors.As(err, &gsErr))
	assert.Equal(t, "INVALID_API_KEY_FORMAT", gsErr.Code)

	c := data.NewGridStatusClient(testKey, "http://127.0.0.1:1", nil)
	p := params()
	p.StartTime, p.EndTime = p.EndTime, p.StartTime
	_, err = c.QueryLocation(ctx, p)
	assert.EqualError(t, err, "start_time must be before end_time")

	_, err = c.QueryLocationByString(ctx, "ds", "loc", "2024/01/01", "2024-01-02")
	assert.Error(t, err)
}

func TestResponseCache(t *testing.T) {
	c := data.NewResponseCache(time.Minute)
	key := data.GenerateCacheKey(params())
	assert.Equal(t, key, data.GenerateCacheKey(params()))

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, nil)
	_, ok = c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	var nilCache *data.ResponseCache
	nilCache.Set(key, nil)
	_, ok = nilCache.Get(key)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
