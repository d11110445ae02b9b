package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/koustreak/sharebox/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: testSecret})
	require.NoError(t, err)
	return m
}

// roundTrip logs in on a recorder and returns a request carrying the cookie.
func roundTrip(t *testing.T, m *Manager, username string) (*http.Request, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := m.Login(rec, username)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookies[0])
	return req, cookies[0]
}

func TestNewManager_ShortSecret(t *testing.T) {
	_, err := NewManager(Config{Secret: []byte("too-short")})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestNewManager_Defaults(t *testing.T) {
	m := newManager(t)
	assert.Equal(t, DefaultCookieName, m.cfg.CookieName)
	assert.Equal(t, DefaultMaxAge, m.cfg.MaxAge)
}

func TestLoginThenLoad(t *testing.T) {
	m := newManager(t)
	req, c := roundTrip(t, m, "alice")

	assert.Equal(t, DefaultCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(DefaultMaxAge/time.Second), c.MaxAge)

	s, ok := m.Load(req)
	require.True(t, ok)
	assert.Equal(t, "alice", s.Username)
	assert.NotEmpty(t, s.ID)
}

func TestLogin_DistinctIDs(t *testing.T) {
	m := newManager(t)

	a, err := m.Login(httptest.NewRecorder(), "alice")
	require.NoError(t, err)
	b, err := m.Login(httptest.NewRecorder(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestLoad_NoCookie(t *testing.T) {
	m := newManager(t)

	_, ok := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestLoad_Tampered(t *testing.T) {
	m := newManager(t)
	_, c := roundTrip(t, m, "alice")

	parts := strings.Split(c.Value, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: forged})

	_, ok := m.Load(req)
	assert.False(t, ok)
}

func TestLoad_OtherSecret(t *testing.T) {
	m := newManager(t)
	req, _ := roundTrip(t, m, "alice")

	other, err := NewManager(Config{Secret: []byte("fedcba9876543210fedcba9876543210")})
	require.NoError(t, err)

	_, ok := other.Load(req)
	assert.False(t, ok)
}

func TestLoad_Expired(t *testing.T) {
	m := newManager(t)
	req, _ := roundTrip(t, m, "alice")

	m.now = func() time.Time { return time.Now().Add(DefaultMaxAge + time.Minute) }

	_, ok := m.Load(req)
	assert.False(t, ok)
}

func TestLoad_RejectsNoneAlgorithm(t *testing.T) {
	m := newManager(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "mallory",
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: unsigned})

	_, ok := m.Load(req)
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	m := newManager(t)
	rec := httptest.NewRecorder()

	m.Logout(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
