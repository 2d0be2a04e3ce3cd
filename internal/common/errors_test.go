package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := NewError(ErrPermissionDenied, "cannot update client %d", 7)

	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.False(t, errors.Is(err, ErrAuthenticationRequired))
	assert.Equal(t, "permission denied: cannot update client 7", err.Error())
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrStorage, cause, "load client")

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"tagged", NewError(ErrValidation, "bad"), ErrValidation},
		{"bare sentinel", ErrorNotFound, ErrorNotFound},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", ErrExpiredToken), ErrExpiredToken},
		{"foreign", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "internal error", UserMessage(Wrap(ErrStorage, errors.New("pq: relation users does not exist"), "")))
	assert.Equal(t, "internal error", UserMessage(errors.New("raw driver failure")))
	assert.Equal(t, "authentication required, please log in", UserMessage(ErrExpiredToken))
	assert.Equal(t, "invalid email or password", UserMessage(NewError(ErrInvalidCredentials, "unknown email")))
	assert.Equal(t, "validation error: amount must be positive", UserMessage(NewError(ErrValidation, "amount must be positive")))
	assert.Equal(t, "permission denied", UserMessage(ErrPermissionDenied))
}
