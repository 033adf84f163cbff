package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsAndCodes(t *testing.T) {
	tests := []struct {
		err  *Error
		kind ErrorType
		code int
	}{
		{NotInitialized(), ErrorTypeNotInitialized, 3},
		{NotRepository("/tmp/x"), ErrorTypeNotInitialized, 3},
		{NotFound("missing"), ErrorTypeNotFound, 4},
		{InvalidName("bad"), ErrorTypeInvalidName, 5},
		{EmptyStagingArea(), ErrorTypeEmptyStagingArea, 6},
		{NoCommits(), ErrorTypeNoCommits, 7},
		{Corrupted("broken", nil), ErrorTypeCorrupted, 8},
		{Conflict("exists"), ErrorTypeConflict, 9},
		{Internal("bug"), ErrorTypeInternal, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.True(t, IsKind(tt.err, tt.kind))
			assert.Equal(t, tt.code, ExitCode(tt.err))
		})
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("opening repository: %w", NotInitialized())

	assert.True(t, IsKind(wrapped, ErrorTypeNotInitialized))
	assert.False(t, IsKind(wrapped, ErrorTypeNotFound))
	assert.Equal(t, 3, ExitCode(wrapped))
}

func TestExitCodePlainError(t *testing.T) {
	assert.Equal(t, 1, ExitCode(fmt.Errorf("plain failure")))
}
