// Package web serves the sharebox pages: sign up, log in, and the
// session-gated dashboard for listing, uploading, downloading and
// deleting files.
package web

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/sharebox/internal/logger"
	"github.com/koustreak/sharebox/internal/session"
)

// DefaultMaxUploadBytes bounds a single upload request body.
const DefaultMaxUploadBytes = 100 << 20

// Users is the credential store the handlers need.
type Users interface {
	Verify(ctx context.Context, username, password string) (bool, error)
	DisplayName(ctx context.Context, username string) (string, error)
	Register(ctx context.Context, username, password, name, email string) error
}

// Files is the file workflow the handlers need.
type Files interface {
	List(ctx context.Context) ([]string, error)
	Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// HealthCheck is a named dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps wires the server to its collaborators.
type Deps struct {
	Users          Users
	Files          Files
	Sessions       *session.Manager
	Log            *logger.Logger
	MaxUploadBytes int64
	HealthChecks   []HealthCheck
}

// Server holds parsed templates and the router.
type Server struct {
	deps   Deps
	tmpl   *template.Template
	router chi.Router
}

// New parses the page templates and builds the routes.
func New(deps Deps) (*Server, error) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{deps: deps, tmpl: tmpl}
	s.router = s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.deps.Log.Middleware())
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)
	r.Get("/share", s.handleSharePage)
	r.Post("/share", s.handleShare)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/dashboard", s.handleDashboard)
		r.Post("/uploadfile/", s.handleUpload)
		r.Get("/downloadfile/{filename}", s.handleDownload)
		r.Get("/deletefile/{filename}", s.handleDeletePage)
		r.Post("/confirmdelete/{filename}", s.handleConfirmDelete)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for _, hc := range s.deps.HealthChecks {
		if err := hc.Check(ctx); err != nil {
			logger.FromContext(ctx).WarnWith("health check failed", err, map[string]any{"check": hc.Name})
			http.Error(w, hc.Name+" unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
