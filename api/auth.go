package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/garnizeh/polls/internal/auth"
	"github.com/garnizeh/polls/pkg/models"
)

// AuthGate is the subset of *auth.Gate used by the handlers.
type AuthGate interface {
	SessionGate
	Register(ctx context.Context, firstName, lastName, username, rawPassword string) (*models.User, error)
	Login(ctx context.Context, username, rawPassword string) (*auth.Session, error)
	Logout(ctx context.Context, tokenStr string) error
	SessionCookie(s *auth.Session) *http.Cookie
	ClearCookie() *http.Cookie
}

var _ AuthGate = (*auth.Gate)(nil)

const (
	msgRegistered  = "Congratulations, you are now a user"
	msgDuplicate   = "That username is already taken."
	msgMissing     = "Username and password are required."
	msgLoginFailed = "User could not log in. Please try again"
)

type AuthHandler struct {
	gate AuthGate
	rd   *Renderer
}

func NewAuthHandler(gate AuthGate, rd *Renderer) *AuthHandler {
	return &AuthHandler{gate: gate, rd: rd}
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.rd.render(w, r, http.StatusOK, "register.html", page{})
		return
	}

	_, err := h.gate.Register(r.Context(),
		r.PostFormValue("f_name"),
		r.PostFormValue("l_name"),
		r.PostFormValue("username"),
		r.PostFormValue("password"),
	)
	switch {
	case err == nil:
		h.rd.render(w, r, http.StatusOK, "register.html", page{Message: msgRegistered})
	case errors.Is(err, auth.ErrDuplicateUsername):
		h.rd.render(w, r, http.StatusOK, "register.html", page{Error: msgDuplicate})
	case errors.Is(err, auth.ErrInvalidInput):
		h.rd.render(w, r, http.StatusBadRequest, "register.html", page{Error: msgMissing})
	default:
		logger.Error("register user", slog.Any("err", err))
		h.rd.renderError(w, r, http.StatusInternalServerError, "Something went wrong.")
	}
}

// Login serves /login with fields user_name and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, "login.html", "password")
}

// AdminLogin serves /admin-page; same semantics as Login, password field pwd.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, "admin_login.html", "pwd")
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, tmpl, passwordField string) {
	if r.Method != http.MethodPost {
		h.rd.render(w, r, http.StatusOK, tmpl, page{Next: safeNext(r.URL.Query().Get("next"))})
		return
	}

	next := safeNext(r.PostFormValue("next"))
	s, err := h.gate.Login(r.Context(), r.PostFormValue("user_name"), r.PostFormValue(passwordField))
	if err != nil {
		if !errors.Is(err, auth.ErrAuthFailure) {
			logger.Error("login", slog.Any("err", err))
		}
		h.rd.render(w, r, http.StatusOK, tmpl, page{Error: msgLoginFailed, Next: next})
		return
	}

	http.SetCookie(w, h.gate.SessionCookie(s))
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.gate.Logout(r.Context(), c.Value); err != nil {
			logger.Error("logout", slog.Any("err", err))
		}
	}
	http.SetCookie(w, h.gate.ClearCookie())
	http.Redirect(w, r, "/", http.StatusFound)
}

// safeNext keeps only site-relative paths so a login cannot redirect off-site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return ""
	}
	return next
}
