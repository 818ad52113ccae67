package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errStageFailed = errors.New("stage failed")

func TestAdd(t *testing.T) {
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{name: "five field", job: Job{Name: "scout", Spec: "0 6 * * *", Run: noop}},
		{name: "descriptor", job: Job{Name: "weekly", Spec: "@weekly", Run: noop}},
		{name: "disabled", job: Job{Name: "off", Spec: "", Run: noop}},
		{name: "seconds field rejected", job: Job{Name: "bad", Spec: "0 0 6 * * *", Run: noop}, wantErr: true},
		{name: "garbage", job: Job{Name: "bad", Spec: "every day", Run: noop}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(nil).Add(tt.job)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAdd_Duplicate(t *testing.T) {
	s := New(nil)
	job := Job{Name: "scout", Spec: "@daily", Run: func(context.Context) error { return nil }}

	require.NoError(t, s.Add(job))
	require.Error(t, s.Add(job))
}

func TestRunNow(t *testing.T) {
	s := New(nil)

	var calls atomic.Int32

	require.NoError(t, s.Add(Job{Name: "fails", Spec: "@daily", Run: func(context.Context) error {
		calls.Add(1)
		return errStageFailed
	}}))
	require.NoError(t, s.Add(Job{Name: "panics", Spec: "@daily", Run: func(context.Context) error {
		calls.Add(1)
		panic("boom")
	}}))

	require.NoError(t, s.RunNow("fails"))
	require.NoError(t, s.RunNow("panics"))
	require.NoError(t, s.RunNow("fails"))
	assert.Equal(t, int32(3), calls.Load())

	require.ErrorIs(t, s.RunNow("missing"), ErrUnknownJob)
	assert.True(t, s.Next("missing").IsZero())
}

func TestRun_FiresAndStops(t *testing.T) {
	s := New(nil)

	var fired atomic.Int32

	require.NoError(t, s.Add(Job{Name: "tick", Spec: "@every 1s", Run: func(context.Context) error {
		if fired.Add(1) == 1 {
			return errStageFailed
		}

		return nil
	}}))
	require.NoError(t, s.Add(Job{Name: "daily", Spec: "0 6 * * *", Run: func(context.Context) error { return nil }}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return fired.Load() >= 2 }, 5*time.Second, 50*time.Millisecond,
		"a failing run must not stop later runs")
	require.Eventually(t, func() bool { return !s.Next("daily").IsZero() }, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
