package hosting

import (
	"context"
	"net/url"
	"strings"
	"time"

	"webharness/hosting/launch"
	"webharness/internal/clock"
	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
)

// LocalNodeConfig configures a locally spawned Node process.
type LocalNodeConfig struct {
	ProjectPath          string
	BaseURL              string
	Script               string // default "start"
	StartupTimeout       time.Duration
	HealthCheckEndpoints []string
	WorkingDirectory     string
	StreamProcessOutput  *bool

	EnvironmentName      string
	EnvironmentVariables map[string]string
}

// LocalNode spawns `npm run <script>` for ProjectPath.
type LocalNode struct {
	cfg      LocalNodeConfig
	clk      clock.Clock
	launcher *launch.Launcher
	handle   *launch.Handle
	plan     launch.LaunchPlan
	metrics  obsmetrics.Provider
}

// NewLocalNode eagerly validates cfg.
func NewLocalNode(cfg LocalNodeConfig, clk clock.Clock) (*LocalNode, error) {
	if cfg.ProjectPath == "" {
		return nil, errMissingProjectPath("use_local_node")
	}
	if cfg.BaseURL == "" {
		return nil, errMissingBaseURL("use_local_node")
	}
	if cfg.Script == "" {
		cfg.Script = "start"
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
	return &LocalNode{cfg: cfg, clk: clk}, nil
}

// SetMetrics installs the provider the builder resolved for this app; the
// launcher built in Start uses it to record child-started/probe counters.
func (n *LocalNode) SetMetrics(p obsmetrics.Provider) { n.metrics = p }

func (n *LocalNode) streamOutput() bool {
	return n.cfg.StreamProcessOutput == nil || *n.cfg.StreamProcessOutput
}

// nodeEnvFor maps environment_name to the NODE_ENV value, per contract:
// "Testing" maps to "test", anything else is lowercased as-is.
func nodeEnvFor(environmentName string) string {
	if environmentName == "Testing" {
		return "test"
	}
	return strings.ToLower(environmentName)
}

func (n *LocalNode) buildPlan() launch.LaunchPlan {
	port := ""
	if u, err := url.Parse(n.cfg.BaseURL); err == nil {
		port = u.Port()
	}
	defaults := map[string]string{
		"NODE_ENV": nodeEnvFor(n.cfg.EnvironmentName),
		"PORT":     port,
	}
	return launch.LaunchPlan{
		Executable:           "npm",
		Arguments:            []string{"run", n.cfg.Script},
		WorkingDirectory:     n.cfg.WorkingDirectory,
		Environment:          mergeEnv(defaults, n.cfg.EnvironmentVariables),
		BaseURL:              n.cfg.BaseURL,
		StartupTimeout:       n.cfg.StartupTimeout,
		HealthCheckEndpoints: n.cfg.HealthCheckEndpoints,
		InitialDelay:         2 * time.Second,
		PollInterval:         200 * time.Millisecond,
		StreamOutput:         n.streamOutput(),
		RedactedEnvKeys:      launch.DefaultRedactedEnvKeys(),
	}
}

func (n *LocalNode) Start(ctx context.Context, logger obslog.Logger) (Result, error) {
	n.plan = n.buildPlan()
	n.launcher = launch.New(n.clk, logger, nil, n.metrics)
	h, err := n.launcher.Start(ctx, n.plan)
	if err != nil {
		return Result{}, err
	}
	n.handle = h
	return Result{BaseURL: n.cfg.BaseURL}, nil
}

func (n *LocalNode) ConfigurationHash() string {
	if n.handle == nil {
		return ""
	}
	return n.plan.ConfigurationHash()
}

func (n *LocalNode) Dispose(ctx context.Context) error {
	if n.handle == nil {
		return nil
	}
	return n.launcher.Dispose(ctx, n.handle)
}
