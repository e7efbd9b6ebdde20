package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
)

func TestFetchByProductIDs_BatchedPost(t *testing.T) {
	var (
		method, path, contentType string
		req                       variantsRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(`{"variants":[{"productId":"P1","price":50,"size":"M"},{"productId":"P2","price":30}]}`))
	}))
	t.Cleanup(srv.Close)

	ic, err := NewInventoryClient(srv.URL, testOptions(), nil)
	require.NoError(t, err)

	variants, err := ic.FetchByProductIDs(context.Background(), []string{"P1", "P2"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/variants/by-product-ids", path)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, []string{"P1", "P2"}, req.ProductIDs)

	require.Len(t, variants, 2)
	assert.Equal(t, "P1", variants[0].ProductID)
	assert.Equal(t, 50.0, variants[0].Price)
	assert.JSONEq(t, `"M"`, string(variants[0].Fields["size"]))
}

func TestFetchByProductIDs_MissingVariantsDefaultsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	ic, err := NewInventoryClient(srv.URL, testOptions(), nil)
	require.NoError(t, err)

	variants, err := ic.FetchByProductIDs(context.Background(), []string{"P1"})
	require.NoError(t, err)
	assert.NotNil(t, variants)
	assert.Empty(t, variants)
}

func TestFetchByProductIDs_PostIsNeverRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	ic, err := NewInventoryClient(srv.URL, testOptions(), nil)
	require.NoError(t, err)

	_, err = ic.FetchByProductIDs(context.Background(), []string{"P1"})
	assert.ErrorIs(t, err, aggregate.ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}
