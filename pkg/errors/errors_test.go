package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/recordlink/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "record", ID: "c-1"}
		assert.Equal(t, "record with ID c-1 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("reference", "r-1")
		wrapped := fmt.Errorf("deleting: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("confidence", 1.5, "must be within [0,1]")
		assert.Equal(t, "validation failed for field confidence: must be within [0,1]", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "target is required"}
		assert.Equal(t, "validation failed: target is required", err.Error())
	})

	t.Run("wrap helper", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapValidation("signal", nil))
		err := pkgerrors.WrapValidation("signal", errors.New("empty value"))
		assert.True(t, pkgerrors.IsValidationError(err))
		assert.Contains(t, err.Error(), "signal")
	})
}

func TestNotGlobalError(t *testing.T) {
	err := pkgerrors.NewNotGlobalError("c-42")
	assert.Contains(t, err.Error(), "c-42")
	assert.True(t, pkgerrors.IsNotGlobal(err))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestAlreadyExistsError(t *testing.T) {
	err := pkgerrors.NewAlreadyExistsError("reference", "g-1", "tenant t-1 already subscribes")
	assert.Contains(t, err.Error(), "already subscribes")
	assert.True(t, pkgerrors.IsAlreadyExists(err))
}

func TestStoreIOError(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("unwrap keeps cause", func(t *testing.T) {
		err := pkgerrors.NewStoreIOError("update", "records", "c-1", cause)
		assert.True(t, pkgerrors.IsStoreIO(err))
		assert.Same(t, cause, errors.Unwrap(err))
		assert.Contains(t, err.Error(), "records/c-1")
	})

	t.Run("wrap store", func(t *testing.T) {
		tests := []struct {
			name    string
			err     error
			storeIO bool
		}{
			{"nil", nil, false},
			{"plain", cause, true},
			{"not found passes", pkgerrors.NewNotFoundError("record", "x"), false},
			{"already typed", pkgerrors.NewStoreIOError("get", "records", "x", cause), true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := pkgerrors.WrapStore("get", "records", "x", tt.err)
				if tt.err == nil {
					assert.NoError(t, got)
					return
				}
				assert.Equal(t, tt.storeIO, pkgerrors.IsStoreIO(got))
			})
		}
	})
}

func TestAuditWriteError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := pkgerrors.NewAuditWriteError("audit_log", "promote", "c-1", cause)

	var target *pkgerrors.AuditWriteError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "audit_log", target.Sink)
	assert.True(t, pkgerrors.IsAuditWrite(err))
	assert.ErrorIs(t, err, cause)
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("store", "unknown driver \"mongo\"", nil)
	assert.Contains(t, err.Error(), "store")
	assert.Contains(t, err.Error(), "mongo")
}
