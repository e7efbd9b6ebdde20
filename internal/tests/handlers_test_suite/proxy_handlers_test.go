package handlers_test_suite

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProxy_ProductRoutes(t *testing.T) {
	catalog := newFakeUpstream(t, http.StatusOK, `{"_id":"P1"}`)
	inventory := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newGateway(t, catalog, inventory, nil)

	for _, path := range []string{"/v1/products/P1", "/v1/collections", "/v1/collections/C1/meta"} {
		w := get(h, path+"?x=1", "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200 OK, got %d", path, w.Code)
		}
	}

	calls := catalog.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 proxied calls, got %d", len(calls))
	}
	for i, want := range []string{"/api/products/P1", "/api/collections", "/api/collections/C1/meta"} {
		if calls[i].Path != want {
			t.Errorf("expected upstream path %s, got %s", want, calls[i].Path)
		}
		if calls[i].Query != "x=1" {
			t.Errorf("expected query to pass through, got %q", calls[i].Query)
		}
	}
}

func TestProxy_UserRoutes(t *testing.T) {
	catalog := newFakeUpstream(t, http.StatusOK, `{}`)
	inventory := newFakeUpstream(t, http.StatusOK, `{}`)
	users := newFakeUpstream(t, http.StatusCreated, `{"accessToken":"x"}`)
	h := newGateway(t, catalog, inventory, users)

	req := httptest.NewRequest(http.MethodPost, "/v1/tokens", strings.NewReader(`{"email":"a@b.c"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", w.Code)
	}
	calls := users.Calls()
	if len(calls) != 1 || calls[0].Path != "/api/tokens" || string(calls[0].Body) != `{"email":"a@b.c"}` {
		t.Errorf("unexpected user-service call %+v", calls)
	}
}

func TestProxy_UserRoutesDisabled(t *testing.T) {
	catalog := newFakeUpstream(t, http.StatusOK, `{}`)
	inventory := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newGateway(t, catalog, inventory, nil)

	w := get(h, "/v1/users/me", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 Not Found, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	catalog := newFakeUpstream(t, http.StatusOK, `{}`)
	inventory := newFakeUpstream(t, http.StatusOK, `{}`)
	h := newGateway(t, catalog, inventory, nil)

	w := get(h, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"status":"UP"}` {
		t.Errorf("unexpected health body %s", body)
	}
}
