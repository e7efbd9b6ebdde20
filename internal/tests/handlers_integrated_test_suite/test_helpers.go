package handlers_integrated_test_suite

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/ban"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/handlers"
	rl "github.com/rogerio-castellano/catalog-gateway/internal/http/rate_limiter"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/router"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/redissvc"
	"github.com/rogerio-castellano/catalog-gateway/internal/upstream"
)

type env struct {
	handler http.Handler
	redis   *miniredis.Miniredis
	bans    *ban.Store
}

// newEnv wires the router with a Redis-backed ban store and a limiter that
// allows burst requests per client before throttling.
func newEnv(t *testing.T, burst, strikeLimit int) *env {
	t.Helper()
	log := logger.Nop()

	products := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"products":[],"total":0}`)
	}))
	t.Cleanup(products.Close)

	mr := miniredis.RunT(t)
	rs, err := redissvc.Connect(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })

	opts := upstream.Options{Timeout: time.Second}
	cc, err := upstream.NewCatalogClient(products.URL, opts, log)
	if err != nil {
		t.Fatal(err)
	}
	ic, err := upstream.NewInventoryClient(products.URL, opts, log)
	if err != nil {
		t.Fatal(err)
	}

	bans := ban.NewStore(rs.Rdb(), strikeLimit, time.Minute, log)
	h, err := router.NewRouter(router.Deps{
		Server:            handlers.NewServer(aggregate.NewService(cc, ic, log), 100, rs, log),
		Limiter:           rl.New(0.0001, burst, time.Minute),
		Strikes:           bans,
		ProductServiceURL: products.URL,
		Log:               log,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &env{handler: h, redis: mr, bans: bans}
}

func (e *env) get(target, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}
