package hosting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"webharness/hosting/envsnap"
	"webharness/internal/obslog"
)

// Factory constructs the hosted application in-process, reading env set by
// DistributedTestHost.Start before it runs.
type Factory func(ctx context.Context) (Result, error)

// DistributedTestHostConfig configures the distributed/in-process host
// strategy. Unlike LocalDotNet/LocalNode it never owns a child process: it
// mutates the current process's env and calls EntryPoint directly.
type DistributedTestHostConfig struct {
	EntryPoint           Factory
	EnvironmentName      string
	SpaProxyEnabled      bool
	EnvironmentVariables map[string]string
}

// DistributedTestHost applies env to the current process, ahead of
// constructing the hosted application factory, then restores it on
// Dispose.
type DistributedTestHost struct {
	cfg    DistributedTestHostConfig
	env    map[string]string
	snap   *envsnap.Snapshot
	result Result
	hash   string
}

// NewDistributedTestHost eagerly validates cfg.
func NewDistributedTestHost(cfg DistributedTestHostConfig) (*DistributedTestHost, error) {
	if cfg.EntryPoint == nil {
		return nil, errMissingEntryPoint("use_distributed_host")
	}
	return &DistributedTestHost{cfg: cfg}, nil
}

func (d *DistributedTestHost) envDefaults() map[string]string {
	spaAssembly := ""
	if d.cfg.SpaProxyEnabled {
		spaAssembly = "Microsoft.AspNetCore.SpaProxy"
	}
	return map[string]string{
		"ASPNETCORE_ENVIRONMENT":                     d.cfg.EnvironmentName,
		"DOTNET_ENVIRONMENT":                         d.cfg.EnvironmentName,
		"ASPNETCORE_HOSTINGSTARTUPASSEMBLIES":        spaAssembly,
		"DOTNET_DASHBOARD_UNSECURED_ALLOW_ANONYMOUS": "true",
		"ASPIRE_ALLOW_UNSECURED_TRANSPORT":            "true",
	}
}

// Start applies env under the env-snapshot controller's process-wide mutex,
// then calls EntryPoint. The snapshot is held open across the call (and
// across a factory error) so Dispose can restore it exactly once; callers
// must always call Dispose, including after a failed Start.
func (d *DistributedTestHost) Start(ctx context.Context, logger obslog.Logger) (Result, error) {
	d.env = mergeEnv(d.envDefaults(), d.cfg.EnvironmentVariables)
	snap, err := envsnap.Apply(ctx, d.env)
	if err != nil {
		return Result{}, err
	}
	d.snap = snap

	res, err := d.cfg.EntryPoint(ctx)
	if err != nil {
		return Result{}, err
	}
	d.result = res
	d.hash = d.configurationHash()
	return res, nil
}

func (d *DistributedTestHost) configurationHash() string {
	keys := make([]string, 0, len(d.env))
	for k := range d.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(d.env[k])
		b.WriteByte(0)
	}
	b.WriteString(d.result.BaseURL)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (d *DistributedTestHost) ConfigurationHash() string { return d.hash }

// Dispose restores env exactly once, regardless of whether Start succeeded.
func (d *DistributedTestHost) Dispose(ctx context.Context) error {
	if d.snap == nil {
		return nil
	}
	d.snap.Restore()
	d.snap = nil
	return nil
}
