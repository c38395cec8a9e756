package webharness

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"webharness/driver"
	"webharness/hosting"
	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
	"webharness/internal/obstrace"
	"webharness/page"
	"webharness/webharnesserr"
)

// Event is published to every registered observer as the app progresses
// through its lifecycle (started, page navigated, disposed).
type Event struct {
	Name string
	Data map[string]any
}

// EventObserver receives every Event the app emits.
type EventObserver func(Event)

// App is the resolved, runnable harness: one hosting strategy, one driver,
// and the typed page factory (NavigateTo/On). The composition root owns
// App; App owns the strategy and driver for its own lifetime.
type App struct {
	opts          Options
	strategy      hosting.Strategy
	driverFactory func(ctx context.Context) (driver.Driver, error)
	logger        obslog.Logger

	mu                sync.Mutex
	drv               driver.Driver
	baseURL           string
	started           bool
	runID             string
	observers         []EventObserver
	startedAt         time.Time
	lastResult        hosting.Result
	verificationCount int

	metrics obsmetrics.Provider
	tracer  *obstrace.Tracer
}

func (a *App) emit(name string, data map[string]any) {
	a.mu.Lock()
	observers := append([]EventObserver(nil), a.observers...)
	a.mu.Unlock()
	ev := Event{Name: name, Data: data}
	for _, obs := range observers {
		obs(ev)
	}
}

// RegisterEventObserver subscribes fn to every future lifecycle event.
func (a *App) RegisterEventObserver(fn EventObserver) {
	a.mu.Lock()
	a.observers = append(a.observers, fn)
	a.mu.Unlock()
}

// MetricsHandler exposes the Prometheus exposition endpoint for this App's
// private registry.
func (a *App) MetricsHandler() http.Handler {
	if a.metrics == nil {
		return http.NotFoundHandler()
	}
	return a.metrics.Handler()
}

// Snapshot returns a point-in-time view of the app's resolved state, handy
// for diagnostics and for tests asserting on build() outcomes.
type Snapshot struct {
	BaseURL           string
	EnvironmentName   string
	HeadlessMode      Headless
	Started           bool
	RunID             string
	ConfigurationHash string
	Uptime            time.Duration
	LastHostingResult hosting.Result
	VerificationCount int
}

func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	var uptime time.Duration
	if a.started {
		uptime = time.Since(a.startedAt)
	}
	return Snapshot{
		BaseURL:           a.baseURL,
		EnvironmentName:   a.opts.EnvironmentName,
		HeadlessMode:      a.opts.HeadlessMode,
		Started:           a.started,
		RunID:             a.runID,
		ConfigurationHash: a.strategy.ConfigurationHash(),
		Uptime:            uptime,
		LastHostingResult: a.lastResult,
		VerificationCount: a.verificationCount,
	}
}

// Start begins the hosting strategy, binds the driver factory, and stores
// the probed base URL. Calling Start twice is an InvalidConfiguration
// error — the strategy itself owns exactly one running process.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return &webharnesserr.InvalidConfigurationError{Field: "app", Reason: "Start called twice"}
	}
	a.mu.Unlock()

	runID := uuid.NewString()
	ctx = obslog.WithCorrelation(ctx, obslog.Correlation{RunID: runID})

	if a.tracer != nil {
		var end func()
		ctx, end = a.tracer.StartSpan(ctx, "hosting.start")
		defer end()
	}

	if a.logger != nil {
		a.logger.Info(ctx, "hosting.run_started", "run_id", runID)
	}

	res, err := a.strategy.Start(ctx, a.logger)
	if err != nil {
		_ = a.strategy.Dispose(ctx)
		return err
	}

	var drv driver.Driver
	if a.driverFactory != nil {
		drv, err = a.driverFactory(ctx)
		if err != nil {
			_ = a.strategy.Dispose(ctx)
			return err
		}
	}

	a.mu.Lock()
	a.baseURL = res.BaseURL
	a.drv = drv
	a.started = true
	a.runID = runID
	a.startedAt = time.Now()
	a.lastResult = res
	a.mu.Unlock()

	a.emit("app.started", map[string]any{"base_url": res.BaseURL})
	return nil
}

// Dispose tears down the driver-independent hosting strategy. Safe to call
// even if Start failed or was never called.
func (a *App) Dispose(ctx context.Context) error {
	err := a.strategy.Dispose(ctx)
	a.emit("app.disposed", nil)
	return err
}

func (a *App) countVerification() {
	a.mu.Lock()
	a.verificationCount++
	a.mu.Unlock()
}

func (a *App) newBase() *page.Base {
	a.mu.Lock()
	defer a.mu.Unlock()
	base := page.NewBase(a.drv, a.logger, a.baseURL, a.opts.DefaultWaitTimeout, 100*time.Millisecond, a.metrics)
	base.SetVerificationObserver(a.countVerification)
	return base
}

// On resolves page type T against this app's driver and logger, runs its
// ConfigureElements, and returns it without navigating.
func On[T any, PT page.PagePtr[T]](app *App) PT {
	var t T
	pt := PT(&t)
	page.SetBase(pt, app.newBase())
	pt.ConfigureElements()
	return pt
}

// NavigateTo resolves page type T (as On does) then navigates the driver to
// its URLPattern with params substituted.
func NavigateTo[T any, PT page.PagePtr[T]](ctx context.Context, app *App, params map[string]string) (PT, error) {
	pt := On[T, PT](app)
	route := page.ExpandRoute(pt.URLPattern(), params)

	app.mu.Lock()
	drv := app.drv
	base := app.baseURL
	app.mu.Unlock()

	if err := drv.NavigateToURL(ctx, base+route); err != nil {
		return pt, err
	}
	app.emit("app.navigated", map[string]any{"route": route})
	return pt, nil
}

// Then is an alias for NavigateTo kept for fluent chains that read more
// naturally as "click submit, then the confirmation page".
func Then[T any, PT page.PagePtr[T]](ctx context.Context, app *App, params map[string]string) (PT, error) {
	return NavigateTo[T, PT](ctx, app, params)
}
