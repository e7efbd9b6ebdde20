package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
	"github.com/rogerio-castellano/catalog-gateway/internal/models"
	"github.com/rogerio-castellano/catalog-gateway/internal/requestctx"
)

func testOptions() Options {
	return Options{Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond}
}

func newCatalog(t *testing.T, url string, opts Options) *CatalogClient {
	t.Helper()
	c, err := NewCatalogClient(url, opts, nil)
	require.NoError(t, err)
	return c
}

func TestFetchByCollection_RequestAndDecode(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"_id":"P1","name":"Shirt"},{"_id":"P2"}],"total":12}`))
	}))
	t.Cleanup(srv.Close)

	q := aggregate.QueryParams{
		Page: 2, Limit: 5, Search: "shirt", Tags: []string{"a", "b"},
		SortBy: "price", Order: "asc", PriceMin: new(float64),
	}
	ctx := requestctx.With(context.Background(), &requestctx.RequestData{RequestID: "req-1", InternalToken: "tok"})

	page, err := newCatalog(t, srv.URL+"/", testOptions()).FetchByCollection(ctx, "C 1", q)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/products/by-collection/C%201", got.URL.EscapedPath())
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "5", got.URL.Query().Get("limit"))
	assert.Equal(t, "shirt", got.URL.Query().Get("search"))
	assert.Equal(t, "a,b", got.URL.Query().Get("tags"))
	assert.Equal(t, "price", got.URL.Query().Get("sortBy"))
	assert.Equal(t, "asc", got.URL.Query().Get("order"))
	assert.False(t, got.URL.Query().Has("gender"))
	assert.False(t, got.URL.Query().Has("priceMin"))
	assert.Equal(t, "req-1", got.Header.Get(requestctx.HeaderRequestID))
	assert.Equal(t, "tok", got.Header.Get(requestctx.HeaderInternalToken))

	assert.Equal(t, 12, page.Total)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "P1", page.Products[0].ID)
	assert.JSONEq(t, `"Shirt"`, string(page.Products[0].Fields["name"]))
}

func TestFetchByCollection_MissingFieldsDefault(t *testing.T) {
	for _, body := range []string{`{}`, `{"products":null}`, ``} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		page, err := newCatalog(t, srv.URL, testOptions()).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})
		srv.Close()

		require.NoError(t, err, body)
		assert.Equal(t, 0, page.Total)
		assert.NotNil(t, page.Products)
		assert.Empty(t, page.Products)
	}
}

func TestFetchByCollection_ServerErrorIsUpstreamUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	opts := testOptions()
	opts.MaxRetries = 0
	_, err := newCatalog(t, srv.URL, opts).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, aggregate.ErrUpstreamUnavailable)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "product-service", se.Service)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchByCollection_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"products": []map[string]any{{"_id": "P1"}}, "total": 1})
	}))
	t.Cleanup(srv.Close)

	page, err := newCatalog(t, srv.URL, testOptions()).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, page.Products, 1)
}

func TestFetchByCollection_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := newCatalog(t, srv.URL, testOptions()).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, aggregate.ErrUpstreamUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchByCollection_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := newCatalog(t, srv.URL, testOptions()).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, aggregate.ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchByCollection_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	opts := Options{Timeout: 20 * time.Millisecond, MaxRetries: 0}
	_, err := newCatalog(t, srv.URL, opts).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, aggregate.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchByCollection_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	opts := testOptions()
	opts.MaxRetries = 1
	_, err := newCatalog(t, url, opts).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, aggregate.ErrUpstreamUnavailable)
}

func TestFetchByCollection_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[{"name":"no id"}],"total":1}`))
	}))
	t.Cleanup(srv.Close)

	_, err := newCatalog(t, srv.URL, testOptions()).FetchByCollection(context.Background(), "C1", aggregate.QueryParams{Page: 1, Limit: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedRecord)
	assert.NotErrorIs(t, err, aggregate.ErrUpstreamUnavailable)
}

func TestNewCatalogClient_InvalidURL(t *testing.T) {
	_, err := NewCatalogClient("products:4000", testOptions(), nil)
	assert.Error(t, err)
}
