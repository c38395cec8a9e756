// Package drivertest provides an in-memory driver.Driver fake for exercising
// the page, verify, and hosting packages without a real browser.
package drivertest

import (
	"context"
	"fmt"
	"sync"

	"webharness/webharnesserr"
)

// ElementState is the fake's notion of one selector's DOM state.
type ElementState struct {
	Text      string
	Attrs     map[string]string
	Visible   bool
	Enabled   bool
	Exists    bool
	Hovered   bool
	Focused   bool
	Cleared   bool
	Selected  string
}

// Driver is a fake driver.Driver backed by an in-memory element table. Tests
// change element state through SetElement (and the title via SetTitle) to
// simulate a page
// changing state between polls, e.g. an element becoming visible after a
// delay.
type Driver struct {
	mu sync.Mutex

	url      string
	title    string
	elements map[string]*ElementState

	// ScriptResults maps a script source to the value ExecuteScript should
	// decode into the caller's out pointer.
	ScriptResults map[string]any
	// Screenshots records every path passed to TakeScreenshot.
	Screenshots []string
	// ScreenshotData is returned from every TakeScreenshot call.
	ScreenshotData []byte

	// NavigateErr, when set, is returned by the next NavigateToURL call.
	NavigateErr error
}

// New returns an empty fake driver positioned at about:blank.
func New() *Driver {
	return &Driver{
		url:           "about:blank",
		elements:      map[string]*ElementState{},
		ScriptResults: map[string]any{},
	}
}

func (d *Driver) element(selector string) *ElementState {
	el, ok := d.elements[selector]
	if !ok {
		el = &ElementState{Attrs: map[string]string{}}
		d.elements[selector] = el
	}
	return el
}

// SetElement replaces the full state of selector.
func (d *Driver) SetElement(selector string, state ElementState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if state.Attrs == nil {
		state.Attrs = map[string]string{}
	}
	d.elements[selector] = &state
}

// SetTitle sets the fake page title.
func (d *Driver) SetTitle(title string) { d.mu.Lock(); d.title = title; d.mu.Unlock() }

// URL returns the current fake URL (test helper, not part of driver.Driver).
func (d *Driver) URL() string { d.mu.Lock(); defer d.mu.Unlock(); return d.url }

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) NavigateToURL(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NavigateErr != nil {
		err := d.NavigateErr
		d.NavigateErr = nil
		return err
	}
	d.url = url
	return nil
}

func (d *Driver) requireExists(selector string) error {
	el, ok := d.elements[selector]
	if !ok || !el.Exists {
		return &webharnesserr.DriverError{Op: "locate " + selector, Cause: fmt.Errorf("element not found")}
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return err
	}
	return nil
}

func (d *Driver) Type(ctx context.Context, selector, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return err
	}
	d.element(selector).Text = text
	return nil
}

func (d *Driver) SelectOption(ctx context.Context, selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return err
	}
	d.element(selector).Selected = value
	return nil
}

func (d *Driver) Focus(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return err
	}
	d.element(selector).Focused = true
	return nil
}

func (d *Driver) Hover(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return err
	}
	d.element(selector).Hovered = true
	return nil
}

func (d *Driver) Clear(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return err
	}
	el := d.element(selector)
	el.Text = ""
	el.Cleared = true
	return nil
}

func (d *Driver) GetText(ctx context.Context, selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return "", err
	}
	return d.element(selector).Text, nil
}

func (d *Driver) GetAttribute(ctx context.Context, selector, name string) (*string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return nil, err
	}
	v, ok := d.element(selector).Attrs[name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (d *Driver) IsVisible(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[selector]
	if !ok || !el.Exists {
		return false, nil
	}
	return el.Visible, nil
}

func (d *Driver) IsEnabled(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireExists(selector); err != nil {
		return false, err
	}
	return d.element(selector).Enabled, nil
}

func (d *Driver) GetPageTitle(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title, nil
}

func (d *Driver) WaitForElement(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requireExists(selector)
}

func (d *Driver) WaitForElementToBeVisible(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[selector]
	if !ok || !el.Exists || !el.Visible {
		return &webharnesserr.DriverError{Op: "wait_for_visible " + selector, Cause: fmt.Errorf("not visible")}
	}
	return nil
}

func (d *Driver) WaitForElementToBeHidden(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[selector]
	if !ok || !el.Exists {
		return nil
	}
	if el.Visible {
		return &webharnesserr.DriverError{Op: "wait_for_hidden " + selector, Cause: fmt.Errorf("still visible")}
	}
	return nil
}

func (d *Driver) ExecuteScript(ctx context.Context, src string, out any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if out == nil {
		return nil
	}
	result, ok := d.ScriptResults[src]
	if !ok {
		return nil
	}
	switch dst := out.(type) {
	case *any:
		*dst = result
	case *string:
		s, _ := result.(string)
		*dst = s
	case *bool:
		b, _ := result.(bool)
		*dst = b
	default:
		return &webharnesserr.DriverError{Op: "execute_script", Cause: fmt.Errorf("unsupported out type %T", out)}
	}
	return nil
}

func (d *Driver) TakeScreenshot(ctx context.Context, path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Screenshots = append(d.Screenshots, path)
	return d.ScreenshotData, nil
}
