package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.Equal(t, "[not_found] record not found", New(ErrKindNotFound, "record not found").Error())
	assert.Equal(t,
		"[connection_failed] ping failed: dial tcp: refused",
		Wrap(ErrKindConnectionFailed, "ping failed", cause).Error(),
	)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"invalid input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
		{"conflict", New(ErrKindConflict, "x"), IsConflict},
		{"credentials", New(ErrKindCredentialsUnavailable, "x"), IsCredentialsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.is(errors.New("plain")))
		})
	}
}

func TestUnwrap_PreservesCause(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(ErrKindQueryFailed, "insert failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrKindUnknown, KindOf(cause))
	assert.Equal(t, "credentials_unavailable", ErrKindCredentialsUnavailable.String())
}

func TestSentinelIdentity(t *testing.T) {
	sentinel := New(ErrKindConflict, "username already exists")
	other := New(ErrKindConflict, "username already exists")

	assert.ErrorIs(t, fmt.Errorf("register: %w", sentinel), sentinel)
	assert.NotErrorIs(t, other, sentinel)
}
