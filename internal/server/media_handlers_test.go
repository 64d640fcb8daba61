package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"refugio/internal/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeMediaReturnsStoredObject(t *testing.T) {
	ta := newTestApp(t)

	key, err := ta.store.Save(context.Background(),
		media.FolderAnimales, "foto.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/media/"+key, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jpeg-bytes", readBody(t, resp))
}

func TestServeMediaRejectsTraversal(t *testing.T) {
	ta := newTestApp(t)

	for _, key := range []string{
		"../etc/passwd",
		"animales/../../secret",
		"animales/.hidden",
	} {
		resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/media/"+key, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "key %q", key)
		resp.Body.Close()
	}
}

func TestServeMediaUnknownKey(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, httptest.NewRequest(
		http.MethodGet, "/media/animales/desconocido.jpg", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"healthy"`)
}
