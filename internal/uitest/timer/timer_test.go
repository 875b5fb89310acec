package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWait_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := New(time.Second, 10*time.Millisecond).Wait(context.Background(), func(context.Context) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWait_EventuallyTrue(t *testing.T) {
	calls := 0
	err := New(time.Second, time.Millisecond).Wait(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWait_TimeoutKeepsLastError(t *testing.T) {
	boom := errors.New("element is stale")
	start := time.Now()

	err := New(50*time.Millisecond, 10*time.Millisecond).Wait(context.Background(), func(context.Context) (bool, error) {
		return false, boom
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, boom)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_ZeroTimeoutIsSingleAttempt(t *testing.T) {
	calls := 0
	err := New(0, time.Millisecond).Wait(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, nil
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, calls)
}

func TestWait_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := New(time.Minute, time.Millisecond).Wait(ctx, func(context.Context) (bool, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return false, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestWait_AttemptContextIsBounded(t *testing.T) {
	err := New(20*time.Millisecond, 5*time.Millisecond).Wait(context.Background(), func(ctx context.Context) (bool, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok, "attempts should carry a deadline")
		<-ctx.Done()
		return false, ctx.Err()
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWait_SlowAttemptOutlastsInterval(t *testing.T) {
	err := New(time.Second, 5*time.Millisecond).Wait(context.Background(), func(ctx context.Context) (bool, error) {
		select {
		case <-time.After(30 * time.Millisecond):
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})

	require.NoError(t, err)
}

func TestWait_ZeroTimeoutRunsOnParentContext(t *testing.T) {
	err := New(0, 5*time.Millisecond).Wait(context.Background(), func(ctx context.Context) (bool, error) {
		_, ok := ctx.Deadline()
		assert.False(t, ok, "a single attempt has no deadline of its own")
		select {
		case <-time.After(30 * time.Millisecond):
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})

	require.NoError(t, err)
}

func TestResult_ReturnsAcceptedValue(t *testing.T) {
	n := 0
	got, err := Result(context.Background(), New(time.Second, time.Millisecond),
		func(context.Context) ([]string, error) {
			n++
			if n < 3 {
				return nil, nil
			}
			return []string{"a", "b"}, nil
		},
		func(v []string) bool { return len(v) > 0 },
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestResult_TimeoutReturnsLastValue(t *testing.T) {
	got, err := Result(context.Background(), New(20*time.Millisecond, 5*time.Millisecond),
		func(context.Context) (string, error) { return "Loading...", nil },
		func(v string) bool { return v == "Done" },
	)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "Loading...", got)
}

func TestResult_NilAcceptTakesFirstValue(t *testing.T) {
	got, err := Result(context.Background(), nil,
		func(context.Context) (int, error) { return 7, nil },
		nil,
	)

	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestAlwaysDone(t *testing.T) {
	attempts := 0
	err := New(time.Second, time.Millisecond).AlwaysDone(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 4 {
			return errors.New("element not interactable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
}

func TestNew_Normalizes(t *testing.T) {
	tm := New(-time.Second, 0)
	assert.Equal(t, time.Duration(0), tm.Timeout)
	assert.Equal(t, DefaultInterval, tm.Interval)

	longer := tm.WithTimeout(3 * time.Second)
	assert.Equal(t, 3*time.Second, longer.Timeout)
	assert.Equal(t, DefaultInterval, longer.Interval)
	assert.Equal(t, time.Duration(0), tm.Timeout, "WithTimeout must not mutate the receiver")
}
