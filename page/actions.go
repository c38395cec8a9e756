package page

import "context"

// Click resolves selector(p), waits per its strategy, then clicks it. When
// awaitNavigation is true it additionally waits for the page's document to
// settle afterward (modelled here as a wait on the root element, since the
// driver contract exposes no separate load-idle primitive).
func Click[P Page](ctx context.Context, p P, selector func(P) Element, awaitNavigation bool) error {
	base := p.Base()
	el := selector(p)
	if err := base.resolveWait(ctx, el); err != nil {
		return err
	}
	if err := base.drv.Click(ctx, el.selector); err != nil {
		return err
	}
	if awaitNavigation {
		return base.drv.WaitForElement(ctx, "body")
	}
	return nil
}

// Type resolves selector(p) and types text into it.
func Type[P Page](ctx context.Context, p P, selector func(P) Element, text string) error {
	base := p.Base()
	el := selector(p)
	if err := base.resolveWait(ctx, el); err != nil {
		return err
	}
	return base.drv.Type(ctx, el.selector, text)
}

// Select resolves selector(p) and chooses value on it.
func Select[P Page](ctx context.Context, p P, selector func(P) Element, value string) error {
	base := p.Base()
	el := selector(p)
	if err := base.resolveWait(ctx, el); err != nil {
		return err
	}
	return base.drv.SelectOption(ctx, el.selector, value)
}

// Focus resolves selector(p) and focuses it.
func Focus[P Page](ctx context.Context, p P, selector func(P) Element) error {
	base := p.Base()
	el := selector(p)
	if err := base.resolveWait(ctx, el); err != nil {
		return err
	}
	return base.drv.Focus(ctx, el.selector)
}

// Hover resolves selector(p) and hovers it.
func Hover[P Page](ctx context.Context, p P, selector func(P) Element) error {
	base := p.Base()
	el := selector(p)
	if err := base.resolveWait(ctx, el); err != nil {
		return err
	}
	return base.drv.Hover(ctx, el.selector)
}

// Clear resolves selector(p) and clears it.
func Clear[P Page](ctx context.Context, p P, selector func(P) Element) error {
	base := p.Base()
	el := selector(p)
	if err := base.resolveWait(ctx, el); err != nil {
		return err
	}
	return base.drv.Clear(ctx, el.selector)
}

// WaitForElement waits for selector(p) to exist.
func WaitForElement[P Page](ctx context.Context, p P, selector func(P) Element) error {
	el := selector(p)
	return p.Base().drv.WaitForElement(ctx, el.selector)
}

// WaitForElementToBeVisible waits for selector(p) to become visible.
func WaitForElementToBeVisible[P Page](ctx context.Context, p P, selector func(P) Element) error {
	el := selector(p)
	return p.Base().drv.WaitForElementToBeVisible(ctx, el.selector)
}
