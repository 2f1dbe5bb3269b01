package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/spritetx/metrics"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHandlerRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "idle.gif"), []byte("GIF89a"), 0o600))

	m := metrics.New()
	m.Extraction("parsed")
	h := NewApi(":0", dir, NewHub(nil, nil, m), m).Handler()

	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get(t, h, "/assets/idle.gif")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "GIF89a", body)

	code, _ = get(t, h, "/assets/missing.gif")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `spritetx_duration_extractions_total{outcome="parsed"} 1`)
}

func TestHandlerWithoutMetrics(t *testing.T) {
	h := NewApi(":0", t.TempDir(), nil, nil).Handler()
	code, _ := get(t, h, "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServeStopsOnCancel(t *testing.T) {
	a := NewApi("127.0.0.1:0", t.TempDir(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
