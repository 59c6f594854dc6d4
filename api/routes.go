package api

import (
	"net/http"

	"github.com/garnizeh/polls/internal/auth"
	"github.com/garnizeh/polls/internal/config"
	"github.com/garnizeh/polls/internal/db"
	"github.com/garnizeh/polls/internal/polls"
	"github.com/garnizeh/polls/internal/repository/sqlite"
	"github.com/gorilla/mux"
)

// SetupRoutes wires the sqlite-backed services into the router.
func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB) *mux.Router {
	repo := sqlite.New(db, logger)
	svc := polls.NewService(repo, repo, logger)
	gate := auth.NewGate(repo, repo, auth.Config{
		Secret:          cfg.SessionSecret,
		SessionDuration: cfg.SessionDuration,
		BcryptCost:      cfg.BcryptCost,
		SecureCookies:   cfg.SecureCookies,
	}, logger)

	return NewRouter(svc, gate, NewSystemHandler(db), version, buildTime)
}

// NewRouter builds the route table over already constructed services.
func NewRouter(svc PollService, gate AuthGate, system *SystemHandler, version, buildTime string) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(SessionMiddleware(gate))

	rd := MustRenderer()
	ph := NewPollsHandler(svc, rd)
	ah := NewAuthHandler(gate, rd)
	guard := RequireLogin(gate)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rd.renderError(w, r, http.StatusNotFound, "Not found.")
	})

	// System
	r.HandleFunc("/version", system.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", system.HealthHandler).Methods("GET")

	// Public poll pages
	r.HandleFunc("/", ph.Index).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}/", ph.Detail).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}/results/", ph.Results).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}/vote/", ph.Vote).Methods("POST")
	r.HandleFunc("/{question_id:[0-9]+}/up-vote/", ph.UpVote).Methods("GET", "POST")
	r.HandleFunc("/ajax-view", ph.Ajax).Methods("POST")

	// Accounts
	r.HandleFunc("/create-user", ah.CreateUser).Methods("GET", "POST")
	r.HandleFunc("/login", ah.Login).Methods("GET", "POST")
	r.HandleFunc("/admin-page", ah.AdminLogin).Methods("GET", "POST")
	r.HandleFunc("/logout", ah.Logout).Methods("POST")

	// Protected
	r.Handle("/user-input", guard(http.HandlerFunc(ph.UserInput))).Methods("GET", "POST")
	r.Handle("/manage", guard(http.HandlerFunc(ph.Manage))).Methods("GET")
	r.Handle("/{question_id:[0-9]+}/add-choice/", guard(http.HandlerFunc(ph.AddChoice))).Methods("GET", "POST")
	r.Handle("/{question_id:[0-9]+}/question-update/", guard(http.HandlerFunc(ph.QuestionUpdate))).Methods("GET", "POST")
	r.Handle("/{question_id:[0-9]+}/del-choice/", guard(http.HandlerFunc(ph.DelChoice))).Methods("GET", "POST")

	return r
}
