package handlers_test_suite

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
	"github.com/rogerio-castellano/catalog-gateway/internal/auth"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/handlers"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/router"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/upstream"
)

const (
	accessSecret   = "access-secret"
	internalSecret = "internal-secret"
)

// recordedCall is one request seen by a fake upstream.
type recordedCall struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// fakeUpstream is an httptest server answering with a canned status and body.
type fakeUpstream struct {
	*httptest.Server

	mu     sync.Mutex
	status int
	body   string
	calls  []recordedCall
}

func newFakeUpstream(t *testing.T, status int, body string) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{status: status, body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   raw,
		})
		status, body := f.status, f.body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeUpstream) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// newGateway wires the full router against the given upstreams with auth enabled.
func newGateway(t *testing.T, catalog, inventory, users *fakeUpstream) http.Handler {
	t.Helper()
	log := logger.Nop()
	opts := upstream.Options{Timeout: time.Second, MaxRetries: 1, RetryBackoff: time.Millisecond}

	cc, err := upstream.NewCatalogClient(catalog.URL, opts, log)
	if err != nil {
		t.Fatalf("catalog client: %v", err)
	}
	ic, err := upstream.NewInventoryClient(inventory.URL, opts, log)
	if err != nil {
		t.Fatalf("inventory client: %v", err)
	}

	deps := router.Deps{
		Server:            handlers.NewServer(aggregate.NewService(cc, ic, log), 100, nil, log),
		Exchanger:         auth.NewExchanger(accessSecret, internalSecret, 5*time.Minute),
		ProductServiceURL: catalog.URL,
		AllowedOrigins:    []string{"http://localhost:3000"},
		Log:               log,
	}
	if users != nil {
		deps.UserServiceURL = users.URL
	}
	h, err := router.NewRouter(deps)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return h
}

func accessToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{"userId": userID, "exp": time.Now().Add(time.Hour).Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(accessSecret))
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	return signed
}

func get(h http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type mergedResponse struct {
	Success    bool `json:"success"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   *int `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	Products   []struct {
		ID       string `json:"_id"`
		Name     string `json:"name"`
		Variants []struct {
			ProductID string  `json:"productId"`
			Price     float64 `json:"price"`
			Size      string  `json:"size"`
		} `json:"variants"`
	} `json:"products"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	return out
}
