package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garnizeh/polls/internal/auth"
	"github.com/garnizeh/polls/pkg/models"
	"github.com/garnizeh/polls/pkg/repository/mock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const secret = "testsecret"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newGate(t *testing.T) (*auth.Gate, *mock.Store, *clock) {
	t.Helper()
	store := mock.NewStore()
	clk := &clock{t: time.Now()}
	g := auth.NewGate(store, store, auth.Config{
		Secret:          secret,
		SessionDuration: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}, nil, auth.WithClock(clk.now))
	return g, store, clk
}

func TestRegister(t *testing.T) {
	g, store, _ := newGate(t)
	ctx := context.Background()

	u, err := g.Register(ctx, "Ada", "Lovelace", "ada", "engine")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	stored := store.Users[u.ID]
	if stored.PasswordHash == "engine" || stored.PasswordHash == "" {
		t.Fatalf("raw password stored")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("engine")) != nil {
		t.Fatalf("stored hash does not verify")
	}
	if stored.FirstName != "Ada" || stored.LastName != "Lovelace" {
		t.Fatalf("names not stored: %#v", stored)
	}

	if _, err := g.Register(ctx, "Other", "Ada", "ada", "x"); !errors.Is(err, auth.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername got %v", err)
	}

	for _, tc := range []struct{ user, pw string }{{"", "pw"}, {"bob", ""}, {"   ", "pw"}} {
		if _, err := g.Register(ctx, "", "", tc.user, tc.pw); !errors.Is(err, auth.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q/%q got %v", tc.user, tc.pw, err)
		}
	}
}

func TestLogin(t *testing.T) {
	g, store, _ := newGate(t)
	ctx := context.Background()

	if _, err := g.Register(ctx, "", "", "bob", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name    string
		user    string
		pw      string
		wantErr error
	}{
		{name: "WrongPassword", user: "bob", pw: "wrong", wantErr: auth.ErrAuthFailure},
		{name: "UnknownUser", user: "alice", pw: "hunter2", wantErr: auth.ErrAuthFailure},
		{name: "EmptyPassword", user: "bob", pw: "", wantErr: auth.ErrAuthFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := g.Login(ctx, tt.user, tt.pw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v got %v", tt.wantErr, err)
			}
			if s != nil {
				t.Fatalf("expected no session on failure")
			}
			if len(store.Sessions) != 0 {
				t.Fatalf("session created on failure")
			}
		})
	}

	s, err := g.Login(ctx, "bob", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Token == "" || s.User == nil || s.User.Username != "bob" {
		t.Fatalf("unexpected session: %#v", s)
	}
	if len(store.Sessions) != 1 {
		t.Fatalf("expected one stored session, got %d", len(store.Sessions))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(s.Token, claims, func(token *jwt.Token) (any, error) { return []byte(secret), nil }); err != nil {
		t.Fatalf("invalid token: %v", err)
	}
	if _, ok := store.Sessions[claims.ID]; !ok {
		t.Fatalf("token jti %q does not name a stored session", claims.ID)
	}

	p, err := g.Authenticate(ctx, s.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.User.ID != s.User.ID || p.SessionID != claims.ID {
		t.Fatalf("principal bound to wrong user: %#v", p)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	g, store, clk := newGate(t)
	ctx := context.Background()

	if _, err := g.Register(ctx, "", "", "carol", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s, err := g.Login(ctx, "carol", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "anything",
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	forgedStr, _ := forged.SignedString([]byte("not-the-secret"))

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: "x", Subject: "1"})
	noExpStr, _ := noExp.SignedString([]byte(secret))

	for name, tok := range map[string]string{
		"Empty":    "",
		"Garbage":  "bad.token.here",
		"Forged":   forgedStr,
		"NoExpiry": noExpStr,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := g.Authenticate(ctx, tok); !errors.Is(err, auth.ErrUnauthenticated) {
				t.Fatalf("want ErrUnauthenticated got %v", err)
			}
		})
	}

	// logout revokes the session even though the token is still signed
	if err := g.Logout(ctx, s.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(store.Sessions) != 0 {
		t.Fatalf("session not removed on logout")
	}
	if _, err := g.Authenticate(ctx, s.Token); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected revoked token rejected, got %v", err)
	}
	if err := g.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("Logout with garbage token should be ignored: %v", err)
	}

	// expiry
	s2, err := g.Login(ctx, "carol", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	clk.t = clk.t.Add(2 * time.Hour)
	if _, err := g.Authenticate(ctx, s2.Token); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestRequireSession(t *testing.T) {
	g, _, _ := newGate(t)
	ctx := context.Background()

	if _, err := g.Register(ctx, "", "", "dave", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s, err := g.Login(ctx, "dave", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user-input", nil)
	if _, err := g.RequireSession(req); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without cookie, got %v", err)
	}

	c := g.SessionCookie(s)
	if c.Name != auth.CookieName || !c.HttpOnly || c.Value != s.Token {
		t.Fatalf("unexpected cookie: %#v", c)
	}
	req.AddCookie(c)
	p, err := g.RequireSession(req)
	if err != nil {
		t.Fatalf("RequireSession: %v", err)
	}
	if p.User.Username != "dave" {
		t.Fatalf("wrong principal: %#v", p.User)
	}

	clear := g.ClearCookie()
	if clear.MaxAge >= 0 || clear.Name != auth.CookieName {
		t.Fatalf("clear cookie does not expire: %#v", clear)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := auth.PrincipalFrom(context.Background()); ok {
		t.Fatalf("expected no principal in empty context")
	}
	p := &auth.Principal{User: &models.User{ID: 7}}
	ctx := auth.WithPrincipal(context.Background(), p)
	got, ok := auth.PrincipalFrom(ctx)
	if !ok || got.User.ID != 7 {
		t.Fatalf("principal not round-tripped: %#v", got)
	}
}
