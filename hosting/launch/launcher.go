package launch

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"webharness/internal/clock"
	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
	"webharness/webharnesserr"
)

// Result is returned by a successful Start.
type Result struct {
	BaseURL string
}

// Handle owns a spawned child process: the OS process, its stdio readers,
// and the configuration hash computed at start time. It terminates on
// Dispose; stdio readers are drained until EOF or process exit.
type Handle struct {
	cmd         *exec.Cmd
	hash        string
	startedAt   time.Time
	streamWG    sync.WaitGroup
	disposeOnce sync.Once

	// waitDone closes once the dedicated Wait goroutine has reaped the
	// process; exitCode is valid only after that point.
	waitDone chan struct{}
	exitCode int
}

// ConfigurationHash returns the hash computed from the LaunchPlan this
// handle was started from.
func (h *Handle) ConfigurationHash() string { return h.hash }

// StartedAt returns when the child process was spawned.
func (h *Handle) StartedAt() time.Time { return h.startedAt }

// Launcher spawns and supervises child processes per a LaunchPlan.
type Launcher struct {
	clk        clock.Clock
	logger     obslog.Logger
	httpClient *http.Client
	reclaimer  PortReclaimer

	childStarted  obsmetrics.Counter
	probeAttempts obsmetrics.Counter
	probeSuccess  obsmetrics.Counter
	probeFailure  obsmetrics.Counter
}

// New builds a Launcher. clk defaults to the real clock, logger to a no-op
// sink, reclaimer to the best-effort OS port reclaimer, and metrics to a
// no-op provider, when nil.
func New(clk clock.Clock, logger obslog.Logger, reclaimer PortReclaimer, metrics obsmetrics.Provider) *Launcher {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = obslog.Noop()
	}
	if reclaimer == nil {
		reclaimer = BestEffortReclaimer{}
	}
	if metrics == nil {
		metrics = obsmetrics.Noop()
	}
	return &Launcher{
		clk:        clk,
		logger:     logger,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		reclaimer:  reclaimer,
		childStarted: metrics.NewCounter(obsmetrics.CommonOpts{
			Namespace: "webharness", Subsystem: "hosting", Name: "child_started_total",
			Help: "Child processes spawned by the launcher.",
		}),
		probeAttempts: metrics.NewCounter(obsmetrics.CommonOpts{
			Namespace: "webharness", Subsystem: "hosting", Name: "probe_attempts_total",
			Help: "Readiness probe attempts across all health check endpoints.",
		}),
		probeSuccess: metrics.NewCounter(obsmetrics.CommonOpts{
			Namespace: "webharness", Subsystem: "hosting", Name: "probe_success_total",
			Help: "Readiness loops that ended in a ready child process.",
		}),
		probeFailure: metrics.NewCounter(obsmetrics.CommonOpts{
			Namespace: "webharness", Subsystem: "hosting", Name: "probe_failure_total",
			Help: "Readiness loops that ended in a timeout or early process exit.",
		}),
	}
}

// Start reclaims the target port, spawns the child, streams its stdio if
// configured, and blocks until the readiness loop succeeds, the child exits
// early, the timeout elapses, or ctx is cancelled. On any failure the child
// is disposed before the error is returned, so a failed Start never leaks a
// live process.
func (l *Launcher) Start(ctx context.Context, plan LaunchPlan) (*Handle, error) {
	l.reclaimer.Reclaim(ctx, plan.BaseURL, plan.ProcessName, l.logger)

	cmd := exec.Command(plan.Executable, plan.Arguments...)
	cmd.Dir = plan.WorkingDirectory
	cmd.Env = envSlice(plan.Environment)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &webharnesserr.StartupFailedError{Reason: "failed to open stdout pipe", Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &webharnesserr.StartupFailedError{Reason: "failed to open stderr pipe", Cause: err}
	}

	l.logger.Info(ctx, "hosting.plan_built", "hash", plan.ConfigurationHash())
	for k, v := range plan.RedactedEnvironment() {
		l.logger.Debug(ctx, "hosting.env", "key", k, "value", v)
	}

	if err := cmd.Start(); err != nil {
		return nil, &webharnesserr.StartupFailedError{Reason: "failed to spawn process", Cause: err}
	}
	l.childStarted.Inc()
	l.logger.Info(ctx, "hosting.child_started", "pid", cmd.Process.Pid)

	h := &Handle{cmd: cmd, hash: plan.ConfigurationHash(), startedAt: l.clk.Now(), waitDone: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		h.exitCode = cmd.ProcessState.ExitCode()
		close(h.waitDone)
	}()

	if plan.StreamOutput {
		h.streamWG.Add(2)
		go l.streamLines(ctx, stdout, h, func(line string) { l.logger.Info(ctx, "hosting.child_stdout", "line", line) })
		go l.streamLines(ctx, stderr, h, func(line string) { l.logger.Warn(ctx, "hosting.child_stderr", "line", line) })
	} else {
		h.streamWG.Add(2)
		go drain(stdout, &h.streamWG)
		go drain(stderr, &h.streamWG)
	}

	if err := l.waitReady(ctx, plan, h); err != nil {
		l.Dispose(ctx, h)
		return nil, err
	}

	return h, nil
}

func (l *Launcher) streamLines(ctx context.Context, r io.Reader, h *Handle, emit func(string)) {
	defer h.streamWG.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		emit(scanner.Text())
	}
}

func drain(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	_, _ = io.Copy(io.Discard, r)
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func (l *Launcher) waitReady(ctx context.Context, plan LaunchPlan, h *Handle) error {
	startupTimeout := plan.StartupTimeout
	if startupTimeout <= 0 {
		startupTimeout = 60 * time.Second
	}
	initialDelay := plan.InitialDelay
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	pollInterval := plan.PollInterval
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}

	deadline := l.clk.Now().Add(startupTimeout)
	endpoints := plan.HealthCheckURLs()

	select {
	case <-l.clk.After(initialDelay):
	case <-ctx.Done():
		return &webharnesserr.StartupFailedError{Reason: "cancelled before first readiness probe", Cause: ctx.Err()}
	}

	attempt := 0
	var lastErr error
	for {
		if exited, exitCode := l.childExited(h); exited {
			l.probeFailure.Inc()
			return &webharnesserr.StartupFailedError{Reason: "process exited before becoming ready", ExitCode: exitCode}
		}

		attempt++
		l.probeAttempts.Inc()
		ready := false
		for _, url := range endpoints {
			status, err := l.probe(ctx, url)
			if err != nil {
				lastErr = err
				continue
			}
			l.logger.Debug(ctx, "hosting.probe_attempt", "n", attempt, "url", url, "status", status)
			if status >= 200 && status < 300 {
				ready = true
				break
			}
		}
		if ready {
			l.probeSuccess.Inc()
			l.logger.Info(ctx, "hosting.ready", "elapsed_ms", l.clk.Now().Sub(h.startedAt).Milliseconds())
			return nil
		}
		if attempt%5 == 0 {
			l.logger.Info(ctx, "hosting.probe_progress", "n", attempt, "status", "not ready")
		}

		if !l.clk.Now().Before(deadline) {
			l.probeFailure.Inc()
			return &webharnesserr.ReadinessTimeoutError{Endpoints: endpoints, Elapsed: startupTimeout.String(), LastError: lastErr}
		}

		select {
		case <-l.clk.After(pollInterval):
		case <-ctx.Done():
			l.probeFailure.Inc()
			return &webharnesserr.ReadinessTimeoutError{Endpoints: endpoints, Elapsed: startupTimeout.String(), LastError: ctx.Err()}
		}
	}
}

func (l *Launcher) probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func (l *Launcher) childExited(h *Handle) (bool, *int) {
	select {
	case <-h.waitDone:
		code := h.exitCode
		return true, &code
	default:
		return false, nil
	}
}

// Dispose sends a termination signal, waits up to 5 seconds for exit, then
// force-kills. Safe to call once; a second call is a no-op.
func (l *Launcher) Dispose(ctx context.Context, h *Handle) error {
	var err error
	h.disposeOnce.Do(func() {
		err = l.dispose(ctx, h)
	})
	return err
}

func (l *Launcher) dispose(ctx context.Context, h *Handle) error {
	if h.cmd.Process == nil {
		h.streamWG.Wait()
		return nil
	}
	select {
	case <-h.waitDone:
		// already exited
	default:
		_ = h.cmd.Process.Signal(terminationSignal())
		select {
		case <-h.waitDone:
		case <-l.clk.After(5 * time.Second):
			_ = h.cmd.Process.Kill()
			<-h.waitDone
		}
	}
	h.streamWG.Wait()
	l.logger.Info(ctx, "hosting.stop", "pid", pidOf(h.cmd), "exit_code", h.exitCode)
	return nil
}

func pidOf(cmd *exec.Cmd) int {
	if cmd.Process == nil {
		return 0
	}
	return cmd.Process.Pid
}
