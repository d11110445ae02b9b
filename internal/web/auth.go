package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/logger"
	"github.com/koustreak/sharebox/internal/users"
)

// User-facing messages carried in the ?message= query parameter.
const (
	msgInvalidCredentials = "Invalid credentials. Please try again."
	msgLoginFailed        = "Login is temporarily unavailable. Please try again."
	msgDuplicateUsername  = "Username already exists. Please choose a different one."
	msgDuplicateEmail     = "Email already exists. Please choose a different one."
	msgMissingFields      = "All fields are required."
	msgPasswordTooLong    = "Password is too long. Please choose a shorter one."
	msgSignupFailed       = "An error occurred. Please try again."
	msgAccountMissing     = "Your account could not be found. Please log in again."
)

type ctxKey struct{}

// requireUser lets the request through only with a valid session and puts
// the username in the context. Everyone else is sent to /login.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.deps.Sessions.Load(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, sess.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the username placed by requireUser.
func userFrom(ctx context.Context) string {
	u, _ := ctx.Value(ctxKey{}).(string)
	return u
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", nil)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", pageData{Message: r.URL.Query().Get("message")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password := r.PostFormValue("username"), r.PostFormValue("password")
	log := logger.FromContext(r.Context())

	ok, err := s.deps.Users.Verify(r.Context(), username, password)
	if err != nil {
		log.ErrorWith("credential check failed", err, map[string]any{"username": username})
		redirectWithMessage(w, r, "/login", msgLoginFailed)
		return
	}
	if !ok {
		log.With().Str("username", username).Logger().Info("login rejected")
		redirectWithMessage(w, r, "/login", msgInvalidCredentials)
		return
	}

	if _, err := s.deps.Sessions.Login(w, username); err != nil {
		log.ErrorWith("failed to start session", err, nil)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Sessions.Logout(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleSharePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "share.html", pageData{Message: r.URL.Query().Get("message")})
}

// handleShare registers a new account. Duplicates, an over-long password
// and blank fields get specific messages; any other failure is logged and
// masked.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")

	err := s.deps.Users.Register(r.Context(),
		username,
		r.PostFormValue("password"),
		r.PostFormValue("name"),
		r.PostFormValue("email"),
	)
	switch {
	case err == nil:
		logger.FromContext(r.Context()).With().Str("username", username).Logger().Info("user registered")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, users.ErrDuplicateUsername):
		redirectWithMessage(w, r, "/share", msgDuplicateUsername)
	case errors.Is(err, users.ErrDuplicateEmail):
		redirectWithMessage(w, r, "/share", msgDuplicateEmail)
	case errors.Is(err, users.ErrPasswordTooLong):
		redirectWithMessage(w, r, "/share", msgPasswordTooLong)
	case errs.IsInvalidInput(err):
		redirectWithMessage(w, r, "/share", msgMissingFields)
	default:
		logger.FromContext(r.Context()).ErrorWith("registration failed", err, map[string]any{"username": username})
		redirectWithMessage(w, r, "/share", msgSignupFailed)
	}
}
