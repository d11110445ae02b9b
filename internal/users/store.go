// Package users is the credential store: account lookup, password
// verification and registration over a database.DB.
package users

import (
	"context"
	"strings"
	"sync"

	"github.com/koustreak/sharebox/internal/database"
	"github.com/koustreak/sharebox/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

const table = "users"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Registration failures callers distinguish. Compare with errors.Is.
var (
	ErrDuplicateUsername = errs.New(errs.ErrKindConflict, "username already exists")
	ErrDuplicateEmail    = errs.New(errs.ErrKindConflict, "email already exists")
	ErrPasswordTooLong   = errs.New(errs.ErrKindInvalidInput, "password exceeds 72 bytes")
)

// Store reads and writes users. Safe for concurrent use; every call checks
// its own connection out of the pool.
type Store struct {
	db   database.DB
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewStore returns a Store hashing with bcrypt.DefaultCost.
func NewStore(db database.DB) *Store {
	return &Store{db: db, cost: bcrypt.DefaultCost}
}

// Verify reports whether username exists and password matches its hash.
// Unknown users still pay for one bcrypt comparison.
func (s *Store) Verify(ctx context.Context, username, password string) (bool, error) {
	q, args, err := database.Select(table, s.db.Dialect()).
		Columns("password").
		Where("username", "=", username).
		Limit(1).
		Build()
	if err != nil {
		return false, err
	}

	var hash string
	if err := s.db.QueryRow(ctx, q, args...).Scan(&hash); err != nil {
		if errs.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
			return false, nil
		}
		return false, err
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// DisplayName returns the stored name for username.
// A missing user is an errs.ErrKindNotFound error.
func (s *Store) DisplayName(ctx context.Context, username string) (string, error) {
	q, args, err := database.Select(table, s.db.Dialect()).
		Columns("name").
		Where("username", "=", username).
		Limit(1).
		Build()
	if err != nil {
		return "", err
	}

	var name string
	if err := s.db.QueryRow(ctx, q, args...).Scan(&name); err != nil {
		if errs.IsNotFound(err) {
			return "", errs.Wrap(errs.ErrKindNotFound, "user "+username+" not found", err)
		}
		return "", err
	}
	return name, nil
}

// Register creates an account. The username is checked before the email,
// and both before anything is written.
func (s *Store) Register(ctx context.Context, username, password, name, email string) error {
	for _, f := range [...]struct{ name, value string }{
		{"username", username}, {"password", password}, {"name", name}, {"email", email},
	} {
		if strings.TrimSpace(f.value) == "" {
			return errs.New(errs.ErrKindInvalidInput, f.name+" is required")
		}
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	taken, err := s.exists(ctx, "username", username)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateUsername
	}

	taken, err = s.exists(ctx, "email", email)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return errs.Wrap(errs.ErrKindUnknown, "failed to hash password", err)
	}

	q, args := database.Insert(table, s.db.Dialect()).
		Set("username", username).
		Set("password", string(hash)).
		Set("name", name).
		Set("email", email).
		Build()

	// a concurrent registration can still win the race; the unique keys
	// reject it and the conflict is returned as is
	if _, err := s.db.Exec(ctx, q, args...); err != nil {
		return err
	}
	return nil
}

func (s *Store) exists(ctx context.Context, column, value string) (bool, error) {
	q, args, err := database.Select(table, s.db.Dialect()).
		Columns("username").
		Where(column, "=", value).
		Limit(1).
		Build()
	if err != nil {
		return false, err
	}

	var found string
	if err := s.db.QueryRow(ctx, q, args...).Scan(&found); err != nil {
		if errs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("sharebox-no-such-user"), s.cost)
	})
	return s.dummy
}
