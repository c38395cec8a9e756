// Package driver defines the contract a browser automation backend must
// satisfy to host pages and verifications. This package intentionally ships
// no production implementation — callers supply their own (go-rod,
// Playwright, Selenium, ...) via Builder.UseDriver, or use drivertest's fake
// for unit tests that never touch a real browser.
package driver

import "context"

// Driver is the minimal surface every page action and verification is
// built on. Every method takes a context so long-running browser calls
// (navigation, waits) can be cancelled by the caller.
type Driver interface {
	CurrentURL(ctx context.Context) (string, error)
	NavigateToURL(ctx context.Context, url string) error

	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	SelectOption(ctx context.Context, selector, value string) error
	Focus(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string) error
	Clear(ctx context.Context, selector string) error

	GetText(ctx context.Context, selector string) (string, error)
	GetAttribute(ctx context.Context, selector, name string) (*string, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	IsEnabled(ctx context.Context, selector string) (bool, error)
	GetPageTitle(ctx context.Context) (string, error)

	WaitForElement(ctx context.Context, selector string) error
	WaitForElementToBeVisible(ctx context.Context, selector string) error
	WaitForElementToBeHidden(ctx context.Context, selector string) error

	// ExecuteScript evaluates src in the page and decodes the result into
	// out. Pass a nil out when the return value is not needed.
	ExecuteScript(ctx context.Context, src string, out any) error

	TakeScreenshot(ctx context.Context, path string) ([]byte, error)
}
