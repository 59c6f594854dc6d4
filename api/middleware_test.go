package api_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/garnizeh/polls/api"
	"github.com/garnizeh/polls/internal/auth"
	"github.com/garnizeh/polls/pkg/models"
)

func TestLoggingMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)
	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
	if res.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request id")
	}

	// an incoming request id is echoed back
	req = httptest.NewRequest(http.MethodGet, "/log", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware(next)

	// OPTIONS should return 204 and not call next
	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	resOpt := wOpt.Result()
	defer resOpt.Body.Close()
	if resOpt.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", resOpt.StatusCode)
	}
	if got := resOpt.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header set, got %q", got)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/cors", nil)
	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, reqGet)
	if wGet.Code != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", wGet.Code)
	}
	if got := wGet.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Fatalf("expected Allow-Methods to include POST, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	pan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	w := httptest.NewRecorder()
	api.RecoveryMiddleware(pan).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panic recovery, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Internal Server Error") {
		t.Fatalf("unexpected body for recovery: %s", w.Body.String())
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	w2 := httptest.NewRecorder()
	api.RecoveryMiddleware(ok).ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 for normal path, got %d", w2.Code)
	}
}

type stubGate struct {
	p   *auth.Principal
	err error
}

func (s stubGate) RequireSession(r *http.Request) (*auth.Principal, error) {
	return s.p, s.err
}

func TestRequireLogin(t *testing.T) {
	alice := &auth.Principal{User: &models.User{ID: 1, Username: "alice"}, SessionID: "s1"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			t.Fatalf("guarded handler ran without a principal")
		}
		_, _ = w.Write([]byte(p.User.Username))
	})

	cases := []struct {
		name       string
		gate       stubGate
		wantStatus int
		wantLoc    string
	}{
		{name: "NoSession", gate: stubGate{err: auth.ErrUnauthenticated}, wantStatus: http.StatusFound, wantLoc: "/login?next=%2Fmanage%3Fx%3D1"},
		{name: "StoreError", gate: stubGate{err: errors.New("db down")}, wantStatus: http.StatusFound, wantLoc: "/login?next=%2Fmanage%3Fx%3D1"},
		{name: "Authenticated", gate: stubGate{p: alice}, wantStatus: http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			api.RequireLogin(c.gate)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage?x=1", nil))
			if w.Code != c.wantStatus {
				t.Fatalf("want %d got %d", c.wantStatus, w.Code)
			}
			if c.wantLoc != "" {
				if loc := w.Header().Get("Location"); loc != c.wantLoc {
					t.Fatalf("want redirect %q got %q", c.wantLoc, loc)
				}
			} else if w.Body.String() != "alice" {
				t.Fatalf("unexpected body %q", w.Body.String())
			}
		})
	}
}

func TestSessionMiddlewareIsOptional(t *testing.T) {
	var seen bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = auth.PrincipalFrom(r.Context())
	})

	w := httptest.NewRecorder()
	api.SessionMiddleware(stubGate{err: auth.ErrUnauthenticated})(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || seen {
		t.Fatalf("anonymous request: status %d, principal %v", w.Code, seen)
	}

	p := &auth.Principal{User: &models.User{ID: 1, Username: "alice"}}
	api.SessionMiddleware(stubGate{p: p})(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !seen {
		t.Fatalf("principal not attached")
	}
}
