package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	t.Parallel()

	t.Run("matches own kind", func(t *testing.T) {
		t.Parallel()
		err := New(NotFound, "Expense not found")
		require.ErrorIs(t, err, NotFound)
		require.NotErrorIs(t, err, Unauthorized)
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("load expense: %w", New(NotFound, "Expense not found"))
		require.ErrorIs(t, err, NotFound)
		require.Equal(t, NotFound, KindOf(err))
		require.Equal(t, "Expense not found", MessageOf(err))
	})

	t.Run("wrap keeps cause", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("connection refused")
		err := Wrap(UpstreamError, cause, "language model request failed")
		require.ErrorIs(t, err, cause)
		require.ErrorIs(t, err, UpstreamError)
		require.Contains(t, err.Error(), "connection refused")
	})
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, Kind(""), KindOf(errors.New("plain")))
	require.Equal(t, Timeout, KindOf(Timeout))
	require.Equal(t, InvalidDate, KindOf(Newf(InvalidDate, "bad date %q", "x")))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, IsRetryable(New(Timeout, "slow")))
	require.True(t, IsRetryable(New(Conflict, "raced")))
	require.False(t, IsRetryable(New(Unauthorized, "nope")))
	require.False(t, IsRetryable(errors.New("plain")))
}
