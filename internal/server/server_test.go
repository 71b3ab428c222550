package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"robostock-backend/internal/platform/db"
)

func testConfig() *db.Config {
	return &db.Config{
		Mode: "release",
		Auth: db.AuthConfig{JWTSecret: strings.Repeat("s", 32)},
	}
}

func TestRouterRegistersEveryRoute(t *testing.T) {
	conn, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	r := NewRouter(testConfig(), conn, nil)
	have := map[string]bool{}
	for _, ri := range r.Routes() {
		have[ri.Method+" "+ri.Path] = true
	}
	want := []string{
		"POST /api/v1/auth/login",
		"GET /api/v1/me",
		"GET /api/v1/me/beneficiary",
		"GET /api/v1/accounts",
		"POST /api/v1/accounts",
		"DELETE /api/v1/accounts/:id",
		"GET /api/v1/categories",
		"POST /api/v1/categories",
		"GET /api/v1/components",
		"GET /api/v1/components/export.csv",
		"GET /api/v1/components/:id",
		"POST /api/v1/components",
		"PUT /api/v1/components/:id",
		"DELETE /api/v1/components/:id",
		"GET /api/v1/components/:id/transactions/open",
		"POST /api/v1/components/:id/checkout",
		"GET /api/v1/beneficiaries",
		"POST /api/v1/beneficiaries",
		"GET /api/v1/beneficiaries/:id",
		"PUT /api/v1/beneficiaries/:id",
		"DELETE /api/v1/beneficiaries/:id",
		"GET /api/v1/beneficiaries/:id/transactions",
		"POST /api/v1/transactions/:key/return",
		"GET /api/v1/transactions/:key",
		"GET /healthz",
		"GET /swagger/*any",
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("route %s not registered", w)
		}
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	conn, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	r := NewRouter(testConfig(), conn, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/components/1/checkout"},
		{http.MethodGet, "/api/v1/beneficiaries"},
		{http.MethodPost, "/api/v1/transactions/1/return"},
		{http.MethodGet, "/api/v1/me"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d", tc.method, tc.path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token = %d", w.Code)
	}
}
