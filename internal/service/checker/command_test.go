package checker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
)

var errUnavailable = errors.New("panel unavailable")

// fakeSource returns queued results and counts calls.
type fakeSource struct {
	mu     sync.Mutex
	calls  int
	result *alarm.Result
	err    error
}

func (f *fakeSource) CheckAlarms(context.Context) (*alarm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.result, f.err
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// TestFormat renders the alarm decision and both lists.
func TestFormat(t *testing.T) {
	t.Parallel()

	result := &alarm.Result{
		OverallAlarm:     true,
		TriggeredSystems: []string{"fire", "bilge"},
		SuppressedAlarms: []string{"esd"},
		CheckedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.Equal(t,
		"ALARM at 2026-03-01T12:00:00Z; triggered: [fire, bilge]; suppressed: [esd]",
		Format(result))

	require.Equal(t, "CLEAR at 0001-01-01T00:00:00Z; triggered: []; suppressed: []", Format(&alarm.Result{}))
	require.Equal(t, "<nil result>", Format(nil))
}

// TestPrintOnce writes exactly one snapshot and surfaces errors.
func TestPrintOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	source := &fakeSource{result: &alarm.Result{TriggeredSystems: []string{}, SuppressedAlarms: []string{}}}
	require.NoError(t, printOnce(context.Background(), source, &buf))
	require.Contains(t, buf.String(), "CLEAR")
	require.Equal(t, 1, source.count())

	failing := &fakeSource{err: errUnavailable}
	require.ErrorIs(t, printOnce(context.Background(), failing, &buf), errUnavailable)
}

// TestPoll keeps polling after errors until the context ends.
func TestPoll(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		source := &fakeSource{err: errUnavailable}
		done := make(chan error, 1)

		go func() {
			done <- poll(ctx, source, DefaultPollInterval)
		}()

		time.Sleep(3*DefaultPollInterval + time.Second)
		synctest.Wait()
		require.Equal(t, 3, source.count())

		cancel()
		require.NoError(t, <-done)
	})
}
