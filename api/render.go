package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/garnizeh/polls/internal/auth"
	"github.com/garnizeh/polls/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is the context object handed to every template.
type page struct {
	User      *models.User
	Message   string
	Error     string
	Question  *models.Question
	Questions []models.Question
	Next      string
}

// Renderer executes the embedded page templates, each composed with the
// shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"fmtTime": func(t time.Time) string { return t.Local().Format("Jan 2, 2006, 3:04 p.m.") },
	"plural": func(n int64) string {
		if n == 1 {
			return ""
		}
		return "s"
	},
}

// NewRenderer parses every page template found in templates/.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, n := range names {
		base := n[len("templates/"):]
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", n)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", base, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

// MustRenderer is NewRenderer that panics on error; templates are embedded so
// a failure is a build defect.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (rd *Renderer) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := rd.pages[name]
	if !ok {
		logger.Error("unknown template", slog.String("template", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if p.User == nil {
		if pr, ok := auth.PrincipalFrom(r.Context()); ok {
			p.User = pr.User
		}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		logger.Error("render template", slog.String("template", name), slog.Any("err", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rd *Renderer) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	rd.render(w, r, status, "error.html", page{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("err", err))
	}
}
