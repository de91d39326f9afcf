package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: Validation("process %s is already migrating", "p1"), want: KindValidation},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", NotFound("server", "s1")), want: KindNotFound},
		{name: "transfer", err: Transfer("pause failed", errors.New("boom")), want: KindTransferFailure},
		{name: "plain error", err: errors.New("disk full"), want: KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "server s1 not found", Message(NotFound("server", "s1")))
	assert.Equal(t, "pause failed: boom", Message(Transfer("pause failed", errors.New("boom"))))
	assert.Equal(t, "disk full", Message(errors.New("disk full")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Internal("update process", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "shuttle: update process: boom", err.Error())
}
