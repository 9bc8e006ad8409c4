package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_KeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("create order: %w", Wrap(ErrUpstream, cause))

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInternal)

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, e.Kind)
	assert.Equal(t, "Failed to create payment order", e.Message)
}

func TestWrap_DoesNotMutateSentinel(t *testing.T) {
	_ = Wrap(ErrInternal, errors.New("boom"))
	assert.Nil(t, ErrInternal.Err)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", ErrPaymentNotFound, KindNotFound},
		{"conflict", fmt.Errorf("x: %w", ErrAlreadyFinalized), KindConflict},
		{"security", ErrInvalidSignature, KindSecurity},
		{"validation", ErrValidation, KindValidation},
		{"plain error", errors.New("disk full"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestEventAndPaymentNotFoundShareCode(t *testing.T) {
	assert.ErrorIs(t, ErrEventNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrPaymentNotFound, ErrNotFound)
}
