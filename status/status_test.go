package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	t.Run("zero value is ok", func(t *testing.T) {
		var s Status
		assert.True(t, s.IsOk())
		assert.NoError(t, s.Err())
		assert.Equal(t, "ok", s.String())
	})

	t.Run("Ok", func(t *testing.T) {
		assert.True(t, Ok().IsOk())
	})

	t.Run("GenericError", func(t *testing.T) {
		s := GenericError("operand is not an integer")
		assert.False(t, s.IsOk())
		assert.Equal(t, "operand is not an integer", s.ErrorMessage())
	})

	t.Run("Errorf", func(t *testing.T) {
		s := Errorf("line %d:%d: %s", 3, 7, "undefined type in new expression")
		assert.False(t, s.IsOk())
		assert.Equal(t, "line 3:7: undefined type in new expression", s.ErrorMessage())
	})

	t.Run("Err", func(t *testing.T) {
		err := GenericError("boom").Err()
		require.Error(t, err)

		var serr *Error
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, "boom", serr.Msg)
	})
}
