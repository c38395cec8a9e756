package page_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webharness/driver/drivertest"
	"webharness/page"
)

type loginPage struct {
	page.Base
	username page.Element
	submit   page.Element
}

func (p *loginPage) URLPattern() string { return "/login/{tenant}" }

func (p *loginPage) ConfigureElements() {
	p.username = p.Element("#username").WithDescription("username field").Build()
	p.submit = p.Element(page.ByTestID("submit")).WithWaitStrategy(page.WaitClickable).Build()
}

func newLoginPage(drv *drivertest.Driver) *loginPage {
	var lp loginPage
	page.SetBase(&lp, page.NewBase(drv, nil, "http://localhost:5000", 0, 0, nil))
	lp.ConfigureElements()
	return &lp
}

func TestElementBuilderDefaults(t *testing.T) {
	drv := drivertest.New()
	lp := newLoginPage(drv)
	assert.Equal(t, "#username", lp.username.Selector())
	assert.Equal(t, "username field", lp.username.Description())
	assert.Equal(t, `[data-testid="submit"]`, lp.submit.Selector())
	assert.Equal(t, page.WaitClickable, lp.submit.WaitStrategy())
}

func TestExpandRouteEncodesValues(t *testing.T) {
	got := page.ExpandRoute("/login/{tenant}", map[string]string{"tenant": "acme corp"})
	assert.Equal(t, "/login/acme+corp", got)
}

func TestTypeActionWritesIntoElement(t *testing.T) {
	drv := drivertest.New()
	drv.SetElement("#username", drivertest.ElementState{Exists: true})
	lp := newLoginPage(drv)

	err := page.Type(context.Background(), lp, func(p *loginPage) page.Element { return p.username }, "alice")
	require.NoError(t, err)

	text, err := drv.GetText(context.Background(), "#username")
	require.NoError(t, err)
	assert.Equal(t, "alice", text)
}

func TestClickRequiresVisibilityWhenClickableStrategy(t *testing.T) {
	drv := drivertest.New()
	drv.SetElement(`[data-testid="submit"]`, drivertest.ElementState{Exists: true, Visible: false})
	lp := newLoginPage(drv)

	err := page.Click(context.Background(), lp, func(p *loginPage) page.Element { return p.submit }, false)
	require.Error(t, err)

	drv.SetElement(`[data-testid="submit"]`, drivertest.ElementState{Exists: true, Visible: true})
	err = page.Click(context.Background(), lp, func(p *loginPage) page.Element { return p.submit }, false)
	require.NoError(t, err)
}
