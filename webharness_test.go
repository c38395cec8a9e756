package webharness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webharness/driver"
	"webharness/driver/drivertest"
	"webharness/hosting"
)

func newTestingDriver(drv driver.Driver) func(ctx context.Context) (driver.Driver, error) {
	return func(ctx context.Context) (driver.Driver, error) { return drv, nil }
}

func TestBuildRejectsSecondStrategyRegistration(t *testing.T) {
	app, err := NewBuilder().
		UseExternalServer("http://localhost:4000").
		UseLocalDotNet(hosting.LocalDotNetConfig{ProjectPath: "/src", BaseURL: "http://localhost:5000"}).
		Build()
	require.Error(t, err)
	assert.Nil(t, app)
}

func TestBuildRejectsZeroWaitTimeout(t *testing.T) {
	_, err := NewBuilder().
		UseExternalServer("http://localhost:4000").
		WithDefaultWaitTimeout(0).
		Build()
	require.Error(t, err)
}

func TestBuildRejectsProductionEnvironment(t *testing.T) {
	_, err := NewBuilder().
		UseExternalServer("http://localhost:4000").
		WithEnvironment("Production").
		Build()
	require.Error(t, err)
}

func TestBuildResolvesHeadlessModeToConcreteValue(t *testing.T) {
	app, err := NewBuilder().UseExternalServer("http://localhost:4000").Build()
	require.NoError(t, err)
	assert.NotEqual(t, HeadlessAuto, app.Snapshot().HeadlessMode)
}

func TestEnvironmentVariableKeysAreCaseInsensitive(t *testing.T) {
	b := NewBuilder().WithEnvironmentVariable("Port", "1").WithEnvironmentVariable("PORT", "2")
	assert.Equal(t, "2", b.opts.EnvironmentVariables["PORT"])
	assert.Len(t, b.opts.EnvironmentVariables, 1)
}

func TestStartWithExternalStrategyRecordsStartedState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	defer srv.Close()

	drv := drivertest.New()
	app, err := NewBuilder().
		UseExternalServer(srv.URL).
		UseDriver(newTestingDriver(drv)).
		Build()
	require.NoError(t, err)

	var started bool
	app.RegisterEventObserver(func(ev Event) {
		if ev.Name == "app.started" {
			started = true
		}
	})

	require.NoError(t, app.Start(context.Background()))
	assert.True(t, started)
	assert.True(t, app.Snapshot().Started)
	assert.Equal(t, srv.URL, app.Snapshot().BaseURL)

	require.NoError(t, app.Dispose(context.Background()))
}

type dashboardPage struct {
	Base
	heading Element
}

func (p *dashboardPage) URLPattern() string { return "/dashboard/{tenant}" }
func (p *dashboardPage) ConfigureElements() {
	p.heading = p.Element("#heading").Build()
}

func TestNavigateToResolvesTypedPageAndExpandsRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	defer srv.Close()

	drv := drivertest.New()
	drv.SetElement("#heading", drivertest.ElementState{Exists: true, Visible: true, Text: "Welcome"})
	app, err := NewBuilder().
		UseExternalServer(srv.URL).
		UseDriver(newTestingDriver(drv)).
		Build()
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	defer app.Dispose(context.Background())

	dash, err := NavigateTo[dashboardPage, *dashboardPage](context.Background(), app, map[string]string{"tenant": "acme"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/dashboard/acme", drv.URL())

	require.NoError(t, dash.Verify().TextIs(context.Background(), "#heading", "Welcome"))
}

func TestVerifyWaitBeforeAssertSucceedsAfterTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	defer srv.Close()

	drv := drivertest.New()
	drv.SetElement("#btn", drivertest.ElementState{Exists: true, Visible: false})
	app, err := NewBuilder().
		UseExternalServer(srv.URL).
		UseDriver(newTestingDriver(drv)).
		WithDefaultWaitTimeout(200 * time.Millisecond).
		Build()
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	defer app.Dispose(context.Background())

	dash := On[dashboardPage, *dashboardPage](app)

	go func() {
		time.Sleep(20 * time.Millisecond)
		drv.SetElement("#btn", drivertest.ElementState{Exists: true, Visible: true})
	}()
	err = dash.Verify().Visible(context.Background(), "#btn")
	require.NoError(t, err)
}
