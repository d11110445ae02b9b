// Package session keeps the logged-in username in an HS256-signed cookie.
// Nothing is stored server side; logging out expires the cookie.
package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/koustreak/sharebox/internal/errs"
)

const (
	issuer = "sharebox"

	// MinSecretLen is the shortest signing key NewManager accepts.
	MinSecretLen = 32

	DefaultCookieName = "sharebox_session"
	DefaultMaxAge     = 24 * time.Hour
)

// Config controls cookie signing and attributes.
type Config struct {
	Secret     []byte
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Session is the decoded content of a valid cookie.
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
}

type claims struct {
	jwt.RegisteredClaims
}

// Manager issues, reads and clears session cookies.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager validates cfg and fills in defaults.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, errs.New(errs.ErrKindInvalidInput, "session secret must be at least 32 bytes")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// Login starts a session for username and sets its cookie on w.
func (m *Manager) Login(w http.ResponseWriter, username string) (Session, error) {
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		Username:  username,
		ExpiresAt: now.Add(m.cfg.MaxAge),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})

	signed, err := token.SignedString(m.cfg.Secret)
	if err != nil {
		return Session{}, errs.Wrap(errs.ErrKindUnknown, "failed to sign session", err)
	}

	http.SetCookie(w, m.cookie(signed, int(m.cfg.MaxAge/time.Second)))
	return s, nil
}

// Load returns the session carried by r. Missing, tampered, expired or
// otherwise invalid cookies all report false.
func (m *Manager) Load(r *http.Request) (Session, bool) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return Session{}, false
	}

	cl := &claims{}
	token, err := jwt.ParseWithClaims(c.Value, cl,
		func(t *jwt.Token) (any, error) { return m.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || cl.Subject == "" {
		return Session{}, false
	}

	return Session{
		ID:        cl.ID,
		Username:  cl.Subject,
		ExpiresAt: cl.ExpiresAt.Time,
	}, true
}

// Logout clears the session cookie.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
