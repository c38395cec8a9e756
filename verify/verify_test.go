package verify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webharness/driver/drivertest"
	"webharness/webharnesserr"
)

// fakeClock advances instantly on Sleep/After so polling tests run fast and
// deterministically instead of racing real wall-clock time.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }
func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func TestVisibleSucceedsOnceTransitioned(t *testing.T) {
	drv := drivertest.New()
	drv.SetElement("#btn", drivertest.ElementState{Exists: true, Visible: false})
	clk := &fakeClock{now: time.Unix(0, 0)}
	vc := New(drv, Options{Timeout: time.Second, RetryInterval: 10 * time.Millisecond}, clk, nil, nil)

	drv.SetElement("#btn", drivertest.ElementState{Exists: true, Visible: true})
	err := vc.Visible(context.Background(), "#btn")
	require.NoError(t, err)
}

func TestVisibleTimesOut(t *testing.T) {
	drv := drivertest.New()
	drv.SetElement("#btn", drivertest.ElementState{Exists: true, Visible: false})
	clk := &fakeClock{now: time.Unix(0, 0)}
	vc := New(drv, Options{Timeout: 30 * time.Millisecond, RetryInterval: 10 * time.Millisecond}, clk, nil, nil)

	err := vc.Visible(context.Background(), "#btn")
	require.Error(t, err)
	var vf *webharnesserr.VerificationFailure
	require.ErrorAs(t, err, &vf)
	assert.Contains(t, vf.Message, "#btn")
	assert.ErrorIs(t, err, webharnesserr.ErrVerificationFailed)
}

func TestPollUntilSeesTextTransitionAcrossPolls(t *testing.T) {
	drv := drivertest.New()
	drv.SetElement("#status", drivertest.ElementState{Exists: true, Text: "loading"})
	clk := &fakeClock{now: time.Unix(0, 0)}
	vc := New(drv, Options{Timeout: 200 * time.Millisecond, RetryInterval: 5 * time.Millisecond}, clk, nil, nil)

	ticks := 0
	cond := func(ctx context.Context) (bool, string, error) {
		ticks++
		if ticks >= 3 {
			drv.SetElement("#status", drivertest.ElementState{Exists: true, Text: "done"})
		}
		got, err := drv.GetText(ctx, "#status")
		if err != nil {
			return false, "", err
		}
		return got == "done", "not done yet", nil
	}
	err := vc.PollUntil(context.Background(), cond, "expected status to become done")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ticks, 3)
}

func TestPollUntilNeverDoubleWrapsVerificationFailure(t *testing.T) {
	drv := drivertest.New()
	clk := &fakeClock{now: time.Unix(0, 0)}
	vc := New(drv, Options{Timeout: time.Second, RetryInterval: time.Millisecond}, clk, nil, nil)

	inner := &webharnesserr.VerificationFailure{Message: "inner failure", Timeout: "5s"}
	cond := func(ctx context.Context) (bool, string, error) { return false, "", inner }
	err := vc.PollUntil(context.Background(), cond, "outer message")
	require.Error(t, err)
	assert.Same(t, inner, err)
}

func TestPollUntilTagsDriverErrorAsTimeout(t *testing.T) {
	drv := drivertest.New()
	clk := &fakeClock{now: time.Unix(0, 0)}
	vc := New(drv, Options{Timeout: time.Second, RetryInterval: time.Millisecond}, clk, nil, nil)

	cond := func(ctx context.Context) (bool, string, error) {
		return false, "", &webharnesserr.DriverError{Op: "wait_for_visible", Cause: assertErr("boom")}
	}
	err := vc.PollUntil(context.Background(), cond, "expected visible")
	require.Error(t, err)
	var vf *webharnesserr.VerificationFailure
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "(timeout)", vf.Tag)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
