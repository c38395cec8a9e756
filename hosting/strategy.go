// Package hosting dispatches to one of four strategies for getting a
// system-under-test URL: an already-running external server, a locally
// spawned .NET or Node process, or a distributed test host that applies
// env to the current process before constructing an in-process factory.
package hosting

import (
	"context"

	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
)

// Result is what a successful Start yields.
type Result struct {
	BaseURL string
}

// Strategy is the single operation surface every hosting variant
// implements. ConfigurationHash returns "" before Start and a deterministic
// non-empty digest after.
type Strategy interface {
	Start(ctx context.Context, logger obslog.Logger) (Result, error)
	ConfigurationHash() string
	Dispose(ctx context.Context) error
}

// MetricsAware is implemented by strategies that spawn a process launcher
// and so have instruments to record. Not every Strategy needs it: the
// external and distributed-host strategies have nothing of their own to
// count.
type MetricsAware interface {
	SetMetrics(obsmetrics.Provider)
}
