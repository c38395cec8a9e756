package hosting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"webharness/internal/obslog"
)

// External points at an already-running server; it owns no process and
// ignores EnvironmentVariables silently, per documented contract.
type External struct {
	baseURL string
	started bool
}

// NewExternal validates baseURL eagerly, matching the other strategies'
// eager-validation contract.
func NewExternal(baseURL string) (*External, error) {
	if baseURL == "" {
		return nil, errMissingBaseURL("use_external_server")
	}
	return &External{baseURL: baseURL}, nil
}

func (e *External) Start(ctx context.Context, logger obslog.Logger) (Result, error) {
	e.started = true
	return Result{BaseURL: e.baseURL}, nil
}

func (e *External) ConfigurationHash() string {
	if !e.started {
		return ""
	}
	sum := sha256.Sum256([]byte("external:" + e.baseURL))
	return hex.EncodeToString(sum[:])
}

func (e *External) Dispose(ctx context.Context) error { return nil }
