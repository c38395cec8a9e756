package envsnap

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRestoresUnsetKey(t *testing.T) {
	os.Unsetenv("WEBHARNESS_TEST_UNSET_KEY")
	snap, err := Apply(context.Background(), map[string]string{"WEBHARNESS_TEST_UNSET_KEY": "1"})
	require.NoError(t, err)
	v, ok := os.LookupEnv("WEBHARNESS_TEST_UNSET_KEY")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	snap.Restore()
	_, ok = os.LookupEnv("WEBHARNESS_TEST_UNSET_KEY")
	assert.False(t, ok)
}

func TestApplyRestoresPriorValue(t *testing.T) {
	os.Setenv("WEBHARNESS_TEST_PRIOR_KEY", "original")
	defer os.Unsetenv("WEBHARNESS_TEST_PRIOR_KEY")

	snap, err := Apply(context.Background(), map[string]string{"WEBHARNESS_TEST_PRIOR_KEY": "mutated"})
	require.NoError(t, err)
	assert.Equal(t, "mutated", os.Getenv("WEBHARNESS_TEST_PRIOR_KEY"))

	snap.Restore()
	assert.Equal(t, "original", os.Getenv("WEBHARNESS_TEST_PRIOR_KEY"))
}

func TestRestoreIsIdempotent(t *testing.T) {
	snap, err := Apply(context.Background(), map[string]string{"WEBHARNESS_TEST_IDEMPOTENT": "x"})
	require.NoError(t, err)
	snap.Restore()
	assert.NotPanics(t, func() { snap.Restore() })
}

func TestApplyHonorsCancellation(t *testing.T) {
	held, err := Apply(context.Background(), map[string]string{"WEBHARNESS_TEST_HOLD": "1"})
	require.NoError(t, err)
	defer held.Restore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Apply(ctx, map[string]string{"WEBHARNESS_TEST_HOLD": "2"})
	assert.ErrorIs(t, err, context.Canceled)
}
