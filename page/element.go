package page

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// WaitStrategy names the condition a page action waits for before resolving
// an Element, beyond plain existence.
type WaitStrategy int

const (
	WaitNone WaitStrategy = iota
	WaitVisible
	WaitHidden
	WaitClickable
	WaitEnabled
)

// Element is an immutable selector plus the metadata a page action or
// verification needs to resolve and wait on it. Build one through a
// Base.Element(...) builder chain; the zero value is never used directly.
type Element struct {
	selector      string
	description   string
	timeout       time.Duration
	waitStrategy  WaitStrategy
	retryInterval time.Duration
}

func (e Element) Selector() string            { return e.selector }
func (e Element) Description() string         { return e.description }
func (e Element) Timeout() time.Duration       { return e.timeout }
func (e Element) WaitStrategy() WaitStrategy   { return e.waitStrategy }
func (e Element) RetryInterval() time.Duration { return e.retryInterval }

func (e Element) String() string {
	if e.description != "" {
		return e.description
	}
	return e.selector
}

// ElementBuilder accumulates Element fields before Build() freezes them.
// Every With* call returns the same builder so calls chain:
//
//	el := base.Element("#submit").WithDescription("submit button").WithWaitStrategy(page.WaitClickable).Build()
type ElementBuilder struct {
	el Element
}

func newElementBuilder(selector string, defaultTimeout, defaultRetryInterval time.Duration) *ElementBuilder {
	return &ElementBuilder{el: Element{
		selector:      selector,
		timeout:       defaultTimeout,
		retryInterval: defaultRetryInterval,
	}}
}

func (b *ElementBuilder) WithDescription(d string) *ElementBuilder {
	b.el.description = d
	return b
}

func (b *ElementBuilder) WithTimeout(d time.Duration) *ElementBuilder {
	b.el.timeout = d
	return b
}

func (b *ElementBuilder) WithWaitStrategy(w WaitStrategy) *ElementBuilder {
	b.el.waitStrategy = w
	return b
}

func (b *ElementBuilder) WithRetryInterval(d time.Duration) *ElementBuilder {
	b.el.retryInterval = d
	return b
}

// Build freezes the accumulated fields into an immutable Element.
func (b *ElementBuilder) Build() Element { return b.el }

// ByTestID produces a selector matching a data-testid attribute, the
// engine-neutral idiom for marking elements up for tests.
func ByTestID(id string) string {
	return fmt.Sprintf("[data-testid=%q]", id)
}

// ByText produces an engine-neutral selector matching an element's visible
// text, leaving the concrete driver to translate it into its own query
// syntax.
func ByText(text string) string {
	return fmt.Sprintf("text=%s", text)
}

// ExpandRoute substitutes {placeholder} segments in pattern from params,
// URL-encoding each value.
func ExpandRoute(pattern string, params map[string]string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		if pattern[i] == '{' {
			end := strings.IndexByte(pattern[i:], '}')
			if end >= 0 {
				name := pattern[i+1 : i+end]
				if v, ok := params[name]; ok {
					b.WriteString(url.QueryEscape(v))
					i += end + 1
					continue
				}
			}
		}
		b.WriteByte(pattern[i])
		i++
	}
	return b.String()
}
