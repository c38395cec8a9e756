package launch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationHashStableAcrossArgOrder(t *testing.T) {
	a := LaunchPlan{
		Executable: "dotnet",
		Arguments:  []string{"run", "--framework", "net9.0"},
		Environment: map[string]string{
			"ASPNETCORE_ENVIRONMENT": "Staging",
			"EXTRA":                  "1",
		},
		BaseURL:              "http://localhost:5000",
		HealthCheckEndpoints: []string{"/"},
		StartupTimeout:       60 * time.Second,
	}
	b := a
	b.Arguments = []string{"--framework", "net9.0", "run"}
	b.Environment = map[string]string{
		"EXTRA":                  "1",
		"ASPNETCORE_ENVIRONMENT": "Staging",
	}
	assert.Equal(t, a.ConfigurationHash(), b.ConfigurationHash())
}

func TestConfigurationHashDiffersOnDifferentEnv(t *testing.T) {
	a := LaunchPlan{Executable: "dotnet", Environment: map[string]string{"ASPNETCORE_ENVIRONMENT": "Staging"}}
	b := LaunchPlan{Executable: "dotnet", Environment: map[string]string{"ASPNETCORE_ENVIRONMENT": "Development"}}
	assert.NotEqual(t, a.ConfigurationHash(), b.ConfigurationHash())
}

func TestRedactedEnvironmentMasksSecrets(t *testing.T) {
	plan := LaunchPlan{
		Environment:     map[string]string{"DB_PASSWORD": "hunter2", "PORT": "5000"},
		RedactedEnvKeys: DefaultRedactedEnvKeys(),
	}
	redacted := plan.RedactedEnvironment()
	assert.Equal(t, "***redacted***", redacted["DB_PASSWORD"])
	assert.Equal(t, "5000", redacted["PORT"])
}

func TestHealthCheckURLsConcatenatesNonSlashPaths(t *testing.T) {
	plan := LaunchPlan{BaseURL: "http://localhost:5000", HealthCheckEndpoints: []string{"/health", "ready"}}
	urls := plan.HealthCheckURLs()
	assert.Equal(t, []string{"http://localhost:5000/health", "http://localhost:5000ready"}, urls)
}

func TestStartSucceedsOnceHealthCheckIsReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	l := New(nil, nil, NoopReclaimer{}, nil)
	plan := LaunchPlan{
		Executable:           "sleep",
		Arguments:            []string{"5"},
		BaseURL:              srv.URL,
		HealthCheckEndpoints: []string{"/"},
		StartupTimeout:       2 * time.Second,
		InitialDelay:         1 * time.Millisecond,
		PollInterval:         5 * time.Millisecond,
	}

	h, err := l.Start(context.Background(), plan)
	require.NoError(t, err)
	require.NotEmpty(t, h.ConfigurationHash())

	err = l.Dispose(context.Background(), h)
	assert.NoError(t, err)
}

func TestStartFailsWhenChildExitsEarly(t *testing.T) {
	l := New(nil, nil, NoopReclaimer{}, nil)
	plan := LaunchPlan{
		Executable:           "true",
		BaseURL:              "http://127.0.0.1:1",
		HealthCheckEndpoints: []string{"/"},
		StartupTimeout:       500 * time.Millisecond,
		InitialDelay:         1 * time.Millisecond,
		PollInterval:         5 * time.Millisecond,
	}
	_, err := l.Start(context.Background(), plan)
	require.Error(t, err)
}
