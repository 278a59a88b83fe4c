package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_Disabled(t *testing.T) {
	if IsEnabled() {
		t.Skip("registry already initialized in this process")
	}

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_Enabled(t *testing.T) {
	InitRegistry()
	InitRegistry()
	assert.True(t, IsEnabled())

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewServer_DefaultPort(t *testing.T) {
	assert.Equal(t, 9090, NewServer(ServerConfig{}).Port())
	assert.Equal(t, 9100, NewServer(ServerConfig{Port: 9100}).Port())
}
