package webharness

import "webharness/page"

// These aliases let a page class embed webharness.Base and reference
// webharness.Element without importing package page directly, matching
// spec's contract that users only write page classes against this package.
type (
	Base    = page.Base
	Element = page.Element
)

const (
	WaitNone      = page.WaitNone
	WaitVisible   = page.WaitVisible
	WaitHidden    = page.WaitHidden
	WaitClickable = page.WaitClickable
	WaitEnabled   = page.WaitEnabled
)

var (
	ByTestID = page.ByTestID
	ByText   = page.ByText
)

// Page re-exports page.Page so page types can declare it as their
// interface without an extra import.
type Page = page.Page

// PagePtr re-exports page.PagePtr for use as NavigateTo/On's second type
// parameter's constraint when callers want to name it explicitly.
type PagePtr[T any] = page.PagePtr[T]
