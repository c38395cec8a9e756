package hosting

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalStartReturnsConfiguredURL(t *testing.T) {
	ext, err := NewExternal("http://localhost:4000")
	require.NoError(t, err)
	assert.Empty(t, ext.ConfigurationHash())

	res, err := ext.Start(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", res.BaseURL)
	assert.NotEmpty(t, ext.ConfigurationHash())
}

func TestNewExternalRejectsEmptyBaseURL(t *testing.T) {
	_, err := NewExternal("")
	require.Error(t, err)
}

func TestLocalDotNetPlanAppliesOverrideOrder(t *testing.T) {
	cfg := LocalDotNetConfig{
		ProjectPath:          "/src/app",
		BaseURL:              "http://localhost:5000",
		Framework:            "net9.0",
		EnvironmentName:      "Testing",
		EnvironmentVariables: map[string]string{"ASPNETCORE_ENVIRONMENT": "Development"},
	}
	strategy, err := NewLocalDotNet(cfg, nil)
	require.NoError(t, err)
	plan := strategy.buildPlan()
	assert.Equal(t, "Development", plan.Environment["ASPNETCORE_ENVIRONMENT"])
}

func TestLocalDotNetPlanHashIsStableAcrossBuilds(t *testing.T) {
	base := LocalDotNetConfig{
		ProjectPath:     "/src/app",
		BaseURL:         "http://localhost:5000",
		Framework:       "net9.0",
		SpaProxyEnabled: true,
		EnvironmentName: "Staging",
		EnvironmentVariables: map[string]string{
			"EXTRA": "1",
		},
	}
	hashes := make(map[string]bool)
	for i := 0; i < 10; i++ {
		strategy, err := NewLocalDotNet(base, nil)
		require.NoError(t, err)
		plan := strategy.buildPlan()
		assert.Contains(t, plan.Arguments, "net9.0")
		assert.Equal(t, "Staging", plan.Environment["ASPNETCORE_ENVIRONMENT"])
		assert.Equal(t, "Microsoft.AspNetCore.SpaProxy", plan.Environment["ASPNETCORE_HOSTINGSTARTUPASSEMBLIES"])
		assert.Equal(t, "1", plan.Environment["EXTRA"])
		hashes[plan.ConfigurationHash()] = true
	}
	assert.Len(t, hashes, 1)
}

func TestLocalNodeMapsTestingToTestEnv(t *testing.T) {
	cfg := LocalNodeConfig{ProjectPath: "/src/web", BaseURL: "http://localhost:3000", EnvironmentName: "Testing"}
	strategy, err := NewLocalNode(cfg, nil)
	require.NoError(t, err)
	plan := strategy.buildPlan()
	assert.Equal(t, "test", plan.Environment["NODE_ENV"])
	assert.Equal(t, "3000", plan.Environment["PORT"])
}

func TestLocalNodeLowercasesOtherEnvironmentNames(t *testing.T) {
	assert.Equal(t, "staging", nodeEnvFor("Staging"))
}

func TestDistributedTestHostRestoresEnvOnFactoryError(t *testing.T) {
	os.Unsetenv("WEBHARNESS_DIST_A")
	os.Setenv("WEBHARNESS_DIST_B", "old")
	defer os.Unsetenv("WEBHARNESS_DIST_B")

	boom := errors.New("factory boom")
	host, err := NewDistributedTestHost(DistributedTestHostConfig{
		EntryPoint: func(ctx context.Context) (Result, error) {
			assert.Equal(t, "1", os.Getenv("WEBHARNESS_DIST_A"))
			return Result{}, boom
		},
		EnvironmentVariables: map[string]string{
			"WEBHARNESS_DIST_A": "1",
			"WEBHARNESS_DIST_B": "2",
		},
	})
	require.NoError(t, err)

	_, err = host.Start(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	require.NoError(t, host.Dispose(context.Background()))
	_, ok := os.LookupEnv("WEBHARNESS_DIST_A")
	assert.False(t, ok)
	assert.Equal(t, "old", os.Getenv("WEBHARNESS_DIST_B"))

	assert.NoError(t, host.Dispose(context.Background()))
}
