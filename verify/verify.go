// Package verify is the assertion engine bound to a driver and a page. Every
// assertion polls its condition against live driver state until it holds or
// its timeout elapses, at which point it raises
// webharnesserr.VerificationFailure. Polling never caches a prior
// observation: unlike a health-check snapshot, a verification must re-read
// the DOM on every tick.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"webharness/driver"
	"webharness/internal/clock"
	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
	"webharness/webharnesserr"
)

// tracer spans each assertion under whatever TracerProvider obstrace.New
// registered globally; with none registered (e.g. a Context built standalone
// in a unit test) this resolves to OpenTelemetry's no-op provider.
var tracer = otel.Tracer("webharness/verify")

// Options bound a Context's polling behaviour.
type Options struct {
	Timeout       time.Duration
	RetryInterval time.Duration
}

// DefaultOptions mirrors the defaults spec.md assigns to element waits.
func DefaultOptions() Options {
	return Options{Timeout: 5 * time.Second, RetryInterval: 100 * time.Millisecond}
}

// Context binds assertions to a driver, carries the polling options, and
// accumulates no state between calls — every assertion is independent.
type Context struct {
	drv    driver.Driver
	opts   Options
	clk    clock.Clock
	logger obslog.Logger

	pollCount obsmetrics.Counter
	failCount obsmetrics.Counter

	// onAssertion, if set, fires once per completed assertion (success or
	// failure) so an embedding App can keep a running verification count.
	onAssertion func()
}

// SetOnAssertion registers fn to run once per completed assertion. Used by
// App to maintain Snapshot's verification count; tests have no need for it.
func (c *Context) SetOnAssertion(fn func()) { c.onAssertion = fn }

func (c *Context) notifyAssertion() {
	if c.onAssertion != nil {
		c.onAssertion()
	}
}

// New builds a verification Context. clk defaults to the real clock and
// metrics to a no-op provider when nil.
func New(drv driver.Driver, opts Options, clk clock.Clock, logger obslog.Logger, metrics obsmetrics.Provider) *Context {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = obslog.Noop()
	}
	if metrics == nil {
		metrics = obsmetrics.Noop()
	}
	return &Context{
		drv:    drv,
		opts:   opts,
		clk:    clk,
		logger: logger,
		pollCount: metrics.NewCounter(obsmetrics.CommonOpts{
			Namespace: "webharness", Subsystem: "verify", Name: "polls_total",
			Help: "Verification condition ticks evaluated.",
		}),
		failCount: metrics.NewCounter(obsmetrics.CommonOpts{
			Namespace: "webharness", Subsystem: "verify", Name: "failures_total",
			Help: "Verification assertions that raised VerificationFailure.",
		}),
	}
}

// Condition is re-evaluated on every poll tick. It returns ok when
// satisfied; otherwise detail is a human-readable description of why it is
// not, and a non-nil err reports a failed observation.
type Condition func(ctx context.Context) (ok bool, detail string, err error)

// PollUntil polls cond at opts.RetryInterval until it reports ok, the parent
// context is cancelled, or opts.Timeout elapses, at which point it raises a
// *webharnesserr.VerificationFailure carrying failureMessage and, if cond
// ever errored, the last such error as cause. An error returned from cond is
// treated as transient and does not end the loop early — except a
// *webharnesserr.VerificationFailure, which propagates immediately and
// unwrapped, since it is already a terminal verification result, not a
// retryable observation.
func (c *Context) PollUntil(ctx context.Context, cond Condition, failureMessage string) error {
	deadline := c.clk.Now().Add(c.opts.Timeout)
	var lastDetail string
	var lastErr error

	for {
		ok, detail, err := cond(ctx)
		if err != nil {
			if vf, isVF := webharnesserr.AsVerificationFailure(err); isVF {
				return vf
			}
			lastErr = err
		} else if ok {
			return nil
		} else {
			lastDetail = detail
		}

		if ctx.Err() != nil {
			return &webharnesserr.VerificationFailure{
				Message: failureMessage,
				Timeout: c.opts.Timeout.String(),
				Cause:   ctx.Err(),
			}
		}
		if !c.clk.Now().Before(deadline) {
			return timeoutFailure(failureMessage, lastDetail, lastErr, c.opts.Timeout)
		}

		select {
		case <-ctx.Done():
			return &webharnesserr.VerificationFailure{
				Message: failureMessage,
				Timeout: c.opts.Timeout.String(),
				Cause:   ctx.Err(),
			}
		case <-c.clk.After(c.opts.RetryInterval):
		}
	}
}

// timeoutFailure builds the VerificationFailure raised when poll_until's
// deadline elapses, tagging the cause the same way an immediately-raised
// condition error would be tagged.
func timeoutFailure(failureMessage, lastDetail string, lastErr error, timeout time.Duration) error {
	msg := failureMessage
	if lastDetail != "" {
		msg = fmt.Sprintf("%s: %s", failureMessage, lastDetail)
	}
	vf := &webharnesserr.VerificationFailure{
		Message: msg,
		Timeout: timeout.String(),
		Cause:   lastErr,
	}
	if lastErr != nil {
		vf.Tag = errorTag(lastErr)
	}
	return vf
}

func errorTag(err error) string {
	if _, ok := err.(*webharnesserr.DriverError); ok {
		return "(timeout)"
	}
	return fmt.Sprintf("(%T)", err)
}

func wrapConditionError(err error, failureMessage string, timeout time.Duration) error {
	if vf, ok := webharnesserr.AsVerificationFailure(err); ok {
		return vf
	}
	return &webharnesserr.VerificationFailure{
		Message: failureMessage,
		Timeout: timeout.String(),
		Tag:     errorTag(err),
		Cause:   err,
	}
}

// poll wraps PollUntil with the hosting.* sibling structured events spec.md
// §6 assigns to verification: a verify.poll debug event per tick and a
// verify.fail warn event carrying the failure message, if any.
func (c *Context) poll(ctx context.Context, op, selector string, cond Condition, failureMessage string) error {
	ctx, span := tracer.Start(ctx, "verify."+op)
	defer span.End()

	wrapped := func(ctx context.Context) (bool, string, error) {
		c.pollCount.Inc()
		c.logger.Debug(ctx, "verify.poll", "selector", selector, "op", op)
		return cond(ctx)
	}
	err := c.PollUntil(ctx, wrapped, failureMessage)
	if err != nil {
		c.failCount.Inc()
		c.logger.Warn(ctx, "verify.fail", "selector", selector, "op", op, "message", err.Error())
	}
	// A successful wait_for_visible phase is only the first half of an
	// assertion; the phase that follows it reports completion.
	if err != nil || op != "wait_for_visible" {
		c.notifyAssertion()
	}
	return err
}

// waitVisible polls driver.WaitForElementToBeVisible until it stops erroring
// or the context's timeout elapses. Real drivers block internally on this
// call; a fake or thin driver that checks once and errors is still correct
// here, since poll_until treats every condition error as transient and
// retries it the same way.
func (c *Context) waitVisible(ctx context.Context, selector string) error {
	return c.poll(ctx, "wait_for_visible", selector, func(ctx context.Context) (bool, string, error) {
		if err := c.drv.WaitForElementToBeVisible(ctx, selector); err != nil {
			return false, "", err
		}
		return true, "", nil
	}, fmt.Sprintf("%q did not become visible", selector))
}

// waitHidden polls driver.WaitForElementToBeHidden the same way waitVisible
// polls WaitForElementToBeVisible.
func (c *Context) waitHidden(ctx context.Context, selector string) error {
	return c.poll(ctx, "wait_for_hidden", selector, func(ctx context.Context) (bool, string, error) {
		if err := c.drv.WaitForElementToBeHidden(ctx, selector); err != nil {
			return false, "", err
		}
		return true, "", nil
	}, fmt.Sprintf("%q did not become hidden", selector))
}

// Visible waits for selector to become visible, then asserts it is visible.
// The two steps are not atomic: an element that turns invisible again in the
// gap between the wait resolving and the assertion running will fail the
// assertion rather than the wait, a documented TOCTOU window, not a bug.
func (c *Context) Visible(ctx context.Context, selector string) error {
	if err := c.waitVisible(ctx, selector); err != nil {
		return err
	}
	c.pollCount.Inc()
	c.logger.Debug(ctx, "verify.poll", "selector", selector, "op", "visible")
	ok, err := c.drv.IsVisible(ctx, selector)
	if err != nil {
		wrapped := wrapConditionError(err, fmt.Sprintf("expected %q to become visible", selector), c.opts.Timeout)
		c.failCount.Inc()
		c.logger.Warn(ctx, "verify.fail", "selector", selector, "op", "visible", "message", wrapped.Error())
		c.notifyAssertion()
		return wrapped
	}
	if !ok {
		vf := &webharnesserr.VerificationFailure{
			Message: fmt.Sprintf("expected %q to become visible: %q is not visible", selector, selector),
			Timeout: c.opts.Timeout.String(),
		}
		c.failCount.Inc()
		c.logger.Warn(ctx, "verify.fail", "selector", selector, "op", "visible", "message", vf.Error())
		c.notifyAssertion()
		return vf
	}
	c.notifyAssertion()
	return nil
}

// NotVisible asserts selector becomes hidden or absent within the timeout.
// A non-existent element already satisfies this, per driver.Driver's
// WaitForElementToBeHidden contract.
func (c *Context) NotVisible(ctx context.Context, selector string) error {
	return c.waitHidden(ctx, selector)
}

// TextIs waits for selector to become visible, then asserts its text equals
// want, byte-exact with no trimming.
func (c *Context) TextIs(ctx context.Context, selector, want string) error {
	if err := c.waitVisible(ctx, selector); err != nil {
		return err
	}
	return c.poll(ctx, "text_is", selector, func(ctx context.Context) (bool, string, error) {
		got, err := c.drv.GetText(ctx, selector)
		if err != nil {
			return false, "", err
		}
		return got == want, fmt.Sprintf("%q text is %q, want %q", selector, got, want), nil
	}, fmt.Sprintf("expected %q text to equal %q", selector, want))
}

// TextContains waits for selector to become visible, then asserts its text
// contains substr.
func (c *Context) TextContains(ctx context.Context, selector, substr string) error {
	if err := c.waitVisible(ctx, selector); err != nil {
		return err
	}
	return c.poll(ctx, "text_contains", selector, func(ctx context.Context) (bool, string, error) {
		got, err := c.drv.GetText(ctx, selector)
		if err != nil {
			return false, "", err
		}
		return contains(got, substr), fmt.Sprintf("%q text is %q, want substring %q", selector, got, substr), nil
	}, fmt.Sprintf("expected %q text to contain %q", selector, substr))
}

// HasAttribute waits for selector to become visible, then asserts its
// attribute name equals want; the last observed value is included on
// failure.
func (c *Context) HasAttribute(ctx context.Context, selector, name, want string) error {
	if err := c.waitVisible(ctx, selector); err != nil {
		return err
	}
	return c.poll(ctx, "has_attribute", selector, func(ctx context.Context) (bool, string, error) {
		got, err := c.drv.GetAttribute(ctx, selector, name)
		if err != nil {
			return false, "", err
		}
		if got == nil {
			return false, fmt.Sprintf("%q has no attribute %q", selector, name), nil
		}
		return *got == want, fmt.Sprintf("%q attribute %q is %q, want %q", selector, name, *got, want), nil
	}, fmt.Sprintf("expected %q attribute %q to equal %q", selector, name, want))
}

// TitleIs asserts the page title equals want within the timeout.
func (c *Context) TitleIs(ctx context.Context, want string) error {
	return c.poll(ctx, "title_is", "", func(ctx context.Context) (bool, string, error) {
		got, err := c.drv.GetPageTitle(ctx)
		if err != nil {
			return false, "", err
		}
		return got == want, fmt.Sprintf("title is %q, want %q", got, want), nil
	}, fmt.Sprintf("expected title to equal %q", want))
}

// TitleContains asserts the page title contains substr within the timeout.
func (c *Context) TitleContains(ctx context.Context, substr string) error {
	return c.poll(ctx, "title_contains", "", func(ctx context.Context) (bool, string, error) {
		got, err := c.drv.GetPageTitle(ctx)
		if err != nil {
			return false, "", err
		}
		return contains(got, substr), fmt.Sprintf("title is %q, want substring %q", got, substr), nil
	}, fmt.Sprintf("expected title to contain %q", substr))
}

// URLIs asserts the current URL equals want within the timeout.
func (c *Context) URLIs(ctx context.Context, want string) error {
	return c.poll(ctx, "url_is", "", func(ctx context.Context) (bool, string, error) {
		got, err := c.drv.CurrentURL(ctx)
		if err != nil {
			return false, "", err
		}
		return got == want, fmt.Sprintf("url is %q, want %q", got, want), nil
	}, fmt.Sprintf("expected url to equal %q", want))
}

// URLContains asserts the current URL contains substr within the timeout.
func (c *Context) URLContains(ctx context.Context, substr string) error {
	return c.poll(ctx, "url_contains", "", func(ctx context.Context) (bool, string, error) {
		got, err := c.drv.CurrentURL(ctx)
		if err != nil {
			return false, "", err
		}
		return contains(got, substr), fmt.Sprintf("url is %q, want substring %q", got, substr), nil
	}, fmt.Sprintf("expected url to contain %q", substr))
}

func contains(s, substr string) bool { return strings.Contains(s, substr) }
