package webharness

import (
	"context"
	"log/slog"
	"os"
	"time"

	"webharness/driver"
	"webharness/hosting"
	"webharness/internal/clock"
	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
	"webharness/internal/obstrace"
	"webharness/webharnesserr"
)

// Builder accumulates Options plus exactly one hosting Strategy. Every
// with_* call mutates the builder's own Options field directly — it is
// never rescanned from anywhere else.
type Builder struct {
	opts Options

	strategy     hosting.Strategy
	strategyName string
	pendingErr   error

	driverFactory func(ctx context.Context) (driver.Driver, error)
	logger        obslog.Logger
	clk           clock.Clock
}

// NewBuilder starts from DefaultOptions.
func NewBuilder() *Builder {
	return &Builder{opts: DefaultOptions()}
}

func (b *Builder) WithEnvironment(name string) *Builder {
	b.opts.EnvironmentName = name
	return b
}

func (b *Builder) WithEnvironmentVariable(key, value string) *Builder {
	b.opts.EnvironmentVariables[normalizeEnvKey(key)] = value
	return b
}

func (b *Builder) WithSpaProxy(enabled bool) *Builder {
	b.opts.SpaProxyEnabled = enabled
	return b
}

func (b *Builder) WithHeadless(mode Headless) *Builder {
	b.opts.HeadlessMode = mode
	return b
}

func (b *Builder) WithDefaultWaitTimeout(d time.Duration) *Builder {
	b.opts.DefaultWaitTimeout = d
	return b
}

func (b *Builder) WithLogLevel(level slog.Level) *Builder {
	b.opts.LogLevel = level
	return b
}

// WithLogger overrides the logger sink used for hosting/verify events.
func (b *Builder) WithLogger(logger obslog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the clock used for readiness polling; primarily a
// test seam.
func (b *Builder) WithClock(clk clock.Clock) *Builder {
	b.clk = clk
	return b
}

// UseDriver registers the factory that produces the driver.Driver instance
// App.Start binds every page to.
func (b *Builder) UseDriver(factory func(ctx context.Context) (driver.Driver, error)) *Builder {
	b.driverFactory = factory
	return b
}

// registerStrategy is the single choke point every use_* path routes
// through, so the duplicate-strategy guard cannot be bypassed by any of
// them — including use_distributed_host.
func (b *Builder) registerStrategy(name string, s hosting.Strategy, err error) *Builder {
	if b.strategy != nil {
		b.strategy = nil
		if b.pendingErr == nil {
			b.pendingErr = &webharnesserr.DuplicateStrategyError{First: b.strategyName, Second: name}
		}
		return b
	}
	if err != nil {
		if b.pendingErr == nil {
			b.pendingErr = err
		}
		return b
	}
	b.strategy = s
	b.strategyName = name
	return b
}

func (b *Builder) UseExternalServer(baseURL string) *Builder {
	b.opts.BaseURL = baseURL
	s, err := hosting.NewExternal(baseURL)
	return b.registerStrategy("external", s, err)
}

func (b *Builder) UseLocalDotNet(cfg hosting.LocalDotNetConfig) *Builder {
	if cfg.EnvironmentName == "" {
		cfg.EnvironmentName = b.opts.EnvironmentName
	}
	cfg.SpaProxyEnabled = cfg.SpaProxyEnabled || b.opts.SpaProxyEnabled
	if cfg.EnvironmentVariables == nil {
		cfg.EnvironmentVariables = b.opts.EnvironmentVariables
	}
	b.opts.BaseURL = cfg.BaseURL
	s, err := hosting.NewLocalDotNet(cfg, b.clk)
	return b.registerStrategy("local_dotnet", s, err)
}

func (b *Builder) UseLocalNode(cfg hosting.LocalNodeConfig) *Builder {
	if cfg.EnvironmentName == "" {
		cfg.EnvironmentName = b.opts.EnvironmentName
	}
	if cfg.EnvironmentVariables == nil {
		cfg.EnvironmentVariables = b.opts.EnvironmentVariables
	}
	b.opts.BaseURL = cfg.BaseURL
	s, err := hosting.NewLocalNode(cfg, b.clk)
	return b.registerStrategy("local_node", s, err)
}

func (b *Builder) UseDistributedHost(cfg hosting.DistributedTestHostConfig) *Builder {
	if cfg.EnvironmentName == "" {
		cfg.EnvironmentName = b.opts.EnvironmentName
	}
	cfg.SpaProxyEnabled = cfg.SpaProxyEnabled || b.opts.SpaProxyEnabled
	if cfg.EnvironmentVariables == nil {
		cfg.EnvironmentVariables = b.opts.EnvironmentVariables
	}
	s, err := hosting.NewDistributedTestHost(cfg)
	return b.registerStrategy("distributed_host", s, err)
}

// Build validates accumulated state and produces an App. It never mutates
// b further; the returned error, if any, is the first InvalidConfiguration
// or DuplicateStrategy recorded by an earlier call.
func (b *Builder) Build() (*App, error) {
	if b.pendingErr != nil {
		return nil, b.pendingErr
	}
	if b.strategy == nil {
		return nil, &webharnesserr.InvalidConfigurationError{Field: "hosting strategy", Reason: "no use_* strategy was registered"}
	}
	if b.opts.DefaultWaitTimeout <= 0 {
		return nil, &webharnesserr.InvalidConfigurationError{Field: "default_wait_timeout", Reason: "must be greater than zero"}
	}
	if b.opts.EnvironmentName == "Production" {
		return nil, &webharnesserr.InvalidConfigurationError{Field: "environment_name", Reason: `"Production" is not a valid target for this test harness`}
	}

	mode := b.opts.HeadlessMode
	if mode == HeadlessAuto {
		if debuggerAttached() {
			mode = HeadlessOff
		} else {
			mode = HeadlessOn
		}
	}
	resolved := b.opts
	resolved.HeadlessMode = mode

	logger := b.logger
	if logger == nil {
		logger = obslog.New(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: resolved.LogLevel})))
	}

	metrics := obsmetrics.NewPrometheusProvider()
	if ma, ok := b.strategy.(hosting.MetricsAware); ok {
		ma.SetMetrics(metrics)
	}

	return &App{
		opts:          resolved,
		strategy:      b.strategy,
		driverFactory: b.driverFactory,
		logger:        logger,
		metrics:       metrics,
		tracer:        obstrace.New("webharness"),
	}, nil
}
