package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-relay/internal/config"
)

func TestNewServesHealth(t *testing.T) {
	logger := zerolog.Nop()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	a := New(&cfg, &logger)
	t.Cleanup(a.cleanup)

	ts := httptest.NewServer(a.Handler())
	t.Cleanup(ts.Close)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")
}
