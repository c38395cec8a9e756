// Package page is the typed page-object model: a Base every page embeds for
// driver/logger/verification access, an Element factory, and generic
// navigation/action helpers that keep fluent chains typed to the concrete
// page instead of collapsing to Base.
package page

import (
	"context"
	"time"

	"webharness/driver"
	"webharness/internal/obslog"
	"webharness/internal/obsmetrics"
	"webharness/verify"
)

// PagePtr constrains a type parameter to "a pointer to T which implements
// Page", the standard Go generics idiom for factories that must construct
// *T and then call its (necessarily pointer-receiver) methods.
type PagePtr[T any] interface {
	*T
	Page
}

// Page is implemented by every user-defined page type, typically by
// embedding Base (which supplies Base()) and defining URLPattern
// and ConfigureElements.
type Page interface {
	// Base returns the embedded Base, giving package page access to the
	// driver/verify/logger bound at construction.
	Base() *Base
	// URLPattern is the page's route, with optional {placeholder} segments.
	URLPattern() string
	// ConfigureElements is called once after construction to let the page
	// build its named Element fields via Base.Element(...).
	ConfigureElements()
}

// Base is embedded by every page type. It owns no driver lifetime of its
// own — the driver outlives every page built against it.
type Base struct {
	drv                  driver.Driver
	logger               obslog.Logger
	verify               *verify.Context
	baseURL              string
	defaultTimeout       time.Duration
	defaultRetryInterval time.Duration
}

// NewBase constructs the shared page dependencies. App calls this once per
// resolved page instance.
func NewBase(drv driver.Driver, logger obslog.Logger, baseURL string, defaultTimeout, defaultRetryInterval time.Duration, metrics obsmetrics.Provider) *Base {
	if logger == nil {
		logger = obslog.Noop()
	}
	vc := verify.New(drv, verify.Options{Timeout: defaultTimeout, RetryInterval: 100 * time.Millisecond}, nil, logger, metrics)
	return &Base{
		drv:                  drv,
		logger:               logger,
		verify:               vc,
		baseURL:              baseURL,
		defaultTimeout:       defaultTimeout,
		defaultRetryInterval: defaultRetryInterval,
	}
}

// Base satisfies Page's Base() method so embedding types promote it.
func (b *Base) Base() *Base { return b }

// Driver exposes the bound driver for page types that need it directly.
func (b *Base) Driver() driver.Driver { return b.drv }

// Verify returns the verification context bound to this page's driver.
func (b *Base) Verify() *verify.Context { return b.verify }

// SetVerificationObserver forwards to the bound verify.Context so an
// embedding App can track how many assertions have completed.
func (b *Base) SetVerificationObserver(fn func()) { b.verify.SetOnAssertion(fn) }

// Element starts building a new Element seeded with this page's default
// timeout/retry interval.
func (b *Base) Element(selector string) *ElementBuilder {
	return newElementBuilder(selector, b.defaultTimeout, b.defaultRetryInterval)
}

// SetBase installs b as p's embedded Base. Called once by the app's
// resolver immediately after constructing a page's zero value, before
// ConfigureElements runs.
func SetBase(p Page, b *Base) { *p.Base() = *b }

// resolveWait waits for el per its WaitStrategy before an action touches it.
func (b *Base) resolveWait(ctx context.Context, el Element) error {
	switch el.waitStrategy {
	case WaitVisible, WaitClickable, WaitEnabled:
		return b.drv.WaitForElementToBeVisible(ctx, el.selector)
	case WaitHidden:
		return b.drv.WaitForElementToBeHidden(ctx, el.selector)
	default:
		return b.drv.WaitForElement(ctx, el.selector)
	}
}
