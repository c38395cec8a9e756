package webharnesserr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateStrategyErrorIs(t *testing.T) {
	err := &DuplicateStrategyError{First: "external", Second: "local_dotnet"}
	assert.ErrorIs(t, err, ErrDuplicateStrategy)
	assert.Contains(t, err.Error(), "external")
	assert.Contains(t, err.Error(), "local_dotnet")
}

func TestVerificationFailureNeverDoubleWraps(t *testing.T) {
	inner := &VerificationFailure{Message: "#btn did not become visible", Timeout: "100ms"}
	vf, ok := AsVerificationFailure(inner)
	require.True(t, ok)
	assert.Same(t, inner, vf)

	var other error = errors.New("boom")
	_, ok = AsVerificationFailure(other)
	assert.False(t, ok)
}

func TestStartupFailedErrorUnwrap(t *testing.T) {
	cause := errors.New("port in use")
	err := &StartupFailedError{Reason: "port reclaim failed", Cause: cause}
	assert.ErrorIs(t, err, ErrStartupFailed)
	assert.ErrorIs(t, err, cause)
}

func TestReadinessTimeoutErrorMessage(t *testing.T) {
	err := &ReadinessTimeoutError{Endpoints: []string{"http://localhost:5000/"}, Elapsed: "60s"}
	assert.Contains(t, err.Error(), "60s")
	assert.Contains(t, err.Error(), "localhost:5000")
}
