package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
)

func TestRewritePath(t *testing.T) {
	assert.Equal(t, "/api/products/42", RewritePath("/v1/products/42"))
	assert.Equal(t, "/api", RewritePath("/v1"))
	assert.Equal(t, "/v10/products", RewritePath("/v10/products"))
	assert.Equal(t, "/health", RewritePath("/health"))
}

func TestProxy_ForwardsUnchanged(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAuth = r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization")
		gotHost = r.Header.Get("X-Origin-Host")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(upstream.Close)

	h, err := NewProxyHandler("product-service", upstream.URL+"/base", logger.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/collections/C1?page=2", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, "/base/api/collections/C1", gotPath)
	assert.Equal(t, "page=2", gotQuery)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.NotEmpty(t, gotHost)
}

func TestProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	h, err := NewProxyHandler("user-service", target, logger.Nop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/tokens", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotEmpty(t, body["error"])
}

func TestNewProxyHandler_InvalidTarget(t *testing.T) {
	_, err := NewProxyHandler("x", "not a url", logger.Nop())
	assert.Error(t, err)
}
