package hosting

import (
	"context"
	"time"

	"webharness/hosting/launch"
	"webharness/internal/clock"
	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
)

// LocalDotNetConfig configures a locally spawned dotnet process.
type LocalDotNetConfig struct {
	ProjectPath          string
	BaseURL              string
	Framework            string // default "net8.0"
	Configuration        string // default "Release"
	StartupTimeout       time.Duration
	HealthCheckEndpoints []string // default ["/"]
	WorkingDirectory     string
	ProcessName          string
	StreamProcessOutput  *bool // nil means default true

	EnvironmentName      string
	SpaProxyEnabled      bool
	EnvironmentVariables map[string]string
}

// LocalDotNet spawns `dotnet run` for ProjectPath and waits for it to
// accept HTTP requests.
type LocalDotNet struct {
	cfg      LocalDotNetConfig
	clk      clock.Clock
	launcher *launch.Launcher
	handle   *launch.Handle
	plan     launch.LaunchPlan
	metrics  obsmetrics.Provider
}

// NewLocalDotNet eagerly validates cfg and prepares the strategy. Start
// does the actual spawn.
func NewLocalDotNet(cfg LocalDotNetConfig, clk clock.Clock) (*LocalDotNet, error) {
	if cfg.ProjectPath == "" {
		return nil, errMissingProjectPath("use_local_dotnet")
	}
	if cfg.BaseURL == "" {
		return nil, errMissingBaseURL("use_local_dotnet")
	}
	if cfg.Framework == "" {
		cfg.Framework = "net8.0"
	}
	if cfg.Configuration == "" {
		cfg.Configuration = "Release"
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = 60 * time.Second
	}
	if len(cfg.HealthCheckEndpoints) == 0 {
		cfg.HealthCheckEndpoints = []string{"/"}
	}
	if cfg.WorkingDirectory == "" {
		cfg.WorkingDirectory = cfg.ProjectPath
	}
	return &LocalDotNet{cfg: cfg, clk: clk}, nil
}

// SetMetrics installs the provider the builder resolved for this app; the
// launcher built in Start uses it to record child-started/probe counters.
func (d *LocalDotNet) SetMetrics(p obsmetrics.Provider) { d.metrics = p }

func (d *LocalDotNet) streamOutput() bool {
	return d.cfg.StreamProcessOutput == nil || *d.cfg.StreamProcessOutput
}

func (d *LocalDotNet) buildPlan() launch.LaunchPlan {
	spaAssembly := ""
	if d.cfg.SpaProxyEnabled {
		spaAssembly = "Microsoft.AspNetCore.SpaProxy"
	}
	defaults := map[string]string{
		"ASPNETCORE_ENVIRONMENT":              d.cfg.EnvironmentName,
		"DOTNET_ENVIRONMENT":                  d.cfg.EnvironmentName,
		"ASPNETCORE_HOSTINGSTARTUPASSEMBLIES": spaAssembly,
	}
	return launch.LaunchPlan{
		Executable: "dotnet",
		Arguments: []string{
			"run",
			"--framework", d.cfg.Framework,
			"--configuration", d.cfg.Configuration,
			"--urls", d.cfg.BaseURL,
			"--no-launch-profile",
		},
		WorkingDirectory:     d.cfg.WorkingDirectory,
		Environment:          mergeEnv(defaults, d.cfg.EnvironmentVariables),
		BaseURL:              d.cfg.BaseURL,
		StartupTimeout:       d.cfg.StartupTimeout,
		HealthCheckEndpoints: d.cfg.HealthCheckEndpoints,
		InitialDelay:         2 * time.Second,
		PollInterval:         200 * time.Millisecond,
		StreamOutput:         d.streamOutput(),
		RedactedEnvKeys:      launch.DefaultRedactedEnvKeys(),
		ProcessName:          d.cfg.ProcessName,
	}
}

func (d *LocalDotNet) Start(ctx context.Context, logger obslog.Logger) (Result, error) {
	d.plan = d.buildPlan()
	d.launcher = launch.New(d.clk, logger, nil, d.metrics)
	h, err := d.launcher.Start(ctx, d.plan)
	if err != nil {
		return Result{}, err
	}
	d.handle = h
	return Result{BaseURL: d.cfg.BaseURL}, nil
}

func (d *LocalDotNet) ConfigurationHash() string {
	if d.handle == nil {
		return ""
	}
	return d.plan.ConfigurationHash()
}

func (d *LocalDotNet) Dispose(ctx context.Context) error {
	if d.handle == nil {
		return nil
	}
	return d.launcher.Dispose(ctx, d.handle)
}
