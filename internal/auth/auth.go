// Package auth verifies credentials and manages login sessions.
//
// A session is a row in the sessions table. The client holds an HS256 JWT in
// the session cookie whose `jti` claim names that row and whose `sub` claim is
// the user id; both the signature and the row must be valid for a request to
// be authenticated.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/garnizeh/polls/pkg/models"
	"github.com/garnizeh/polls/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "polls_session"

var (
	ErrAuthFailure       = errors.New("invalid username or password")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrInvalidInput      = errors.New("invalid input")
)

type Config struct {
	Secret          string
	SessionDuration time.Duration
	BcryptCost      int
	SecureCookies   bool
}

type Gate struct {
	users    repository.UserRepo
	sessions repository.SessionRepo
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	// compared against when the username is unknown; hashed at the configured
	// cost so both failure paths take the same time
	dummyHash []byte
}

type Option func(*Gate)

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a Gate with required dependencies.
func NewGate(ur repository.UserRepo, sr repository.SessionRepo, cfg Config, logger *slog.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = 2 * time.Hour
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	g := &Gate{users: ur, sessions: sr, cfg: cfg, logger: logger, now: time.Now}
	g.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("polls-dummy-password"), cfg.BcryptCost)
	for _, o := range opts {
		o(g)
	}
	return g
}

// Session is an established login.
type Session struct {
	Token   string
	User    *models.User
	Expires time.Time
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	User      *models.User
	SessionID string
}

// Register creates a user storing only the bcrypt hash of rawPassword.
func (g *Gate) Register(ctx context.Context, firstName, lastName, username, rawPassword string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || rawPassword == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), g.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Username:     username,
		PasswordHash: string(hash),
	}
	id, err := g.users.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.ID = id

	g.logger.Info("user registered", slog.Int64("user_id", id))
	return u, nil
}

// Login verifies the credentials and opens a session. Unknown users and wrong
// passwords both yield ErrAuthFailure.
func (g *Gate) Login(ctx context.Context, username, rawPassword string) (*Session, error) {
	u, err := g.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash := g.dummyHash
	if u != nil {
		hash = []byte(u.PasswordHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(rawPassword)) != nil || u == nil {
		g.logger.Info("login failed")
		return nil, ErrAuthFailure
	}

	now := g.now().UTC()
	s := &models.Session{
		ID:      uuid.NewString(),
		UserID:  u.ID,
		Created: now,
		Expires: now.Add(g.cfg.SessionDuration),
	}
	if err := g.sessions.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := g.sign(s)
	if err != nil {
		return nil, err
	}

	g.logger.Info("user logged in", slog.Int64("user_id", u.ID))
	return &Session{Token: token, User: u, Expires: s.Expires}, nil
}

func (g *Gate) sign(s *models.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   strconv.FormatInt(s.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(s.Created),
		ExpiresAt: jwt.NewNumericDate(s.Expires),
	})
	tokenStr, err := token.SignedString([]byte(g.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return tokenStr, nil
}

// Authenticate resolves a session token to its principal.
func (g *Gate) Authenticate(ctx context.Context, tokenStr string) (*Principal, error) {
	if tokenStr == "" {
		return nil, ErrUnauthenticated
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return []byte(g.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	s, err := g.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if s == nil || s.Expired(g.now()) || strconv.FormatInt(s.UserID, 10) != claims.Subject {
		return nil, ErrUnauthenticated
	}

	u, err := g.users.GetUserByID(ctx, s.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrUnauthenticated
	}

	return &Principal{User: u, SessionID: s.ID}, nil
}

// RequireSession authenticates the session cookie attached to r.
func (g *Gate) RequireSession(r *http.Request) (*Principal, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return g.Authenticate(r.Context(), c.Value)
}

// Logout deletes the session named by the token. Invalid tokens are ignored.
func (g *Gate) Logout(ctx context.Context, tokenStr string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return []byte(g.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || claims.ID == "" {
		return nil
	}
	if err := g.sessions.DeleteSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SessionCookie builds the cookie carrying an established session.
func (g *Gate) SessionCookie(s *Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.Expires,
		HttpOnly: true,
		Secure:   g.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds a cookie that removes the session cookie.
func (g *Gate) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

type ctxKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}
