package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelivery struct {
	mu    sync.Mutex
	fired []Scheduled
	ch    chan Scheduled
}

func newRecordingDelivery() *recordingDelivery {
	return &recordingDelivery{ch: make(chan Scheduled, 16)}
}

func (d *recordingDelivery) Deliver(ctx context.Context, n Scheduled) error {
	d.mu.Lock()
	d.fired = append(d.fired, n)
	d.mu.Unlock()
	d.ch <- n
	return nil
}

func (d *recordingDelivery) wait(t *testing.T) Scheduled {
	t.Helper()
	select {
	case n := <-d.ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return Scheduled{}
	}
}

func TestLocalNotifierDeliversDue(t *testing.T) {
	sink := newRecordingDelivery()
	notifier := NewLocalNotifier(sink, nil)
	notifier.Start()
	defer notifier.Stop()

	ctx := context.Background()
	err := notifier.ScheduleAt(ctx, "task|t1|after|0600|20260901",
		time.Now().Add(20*time.Millisecond), Payload{TaskID: "t1", Phase: PhaseAfter})
	require.NoError(t, err)

	fired := sink.wait(t)
	assert.Equal(t, "task|t1|after|0600|20260901", fired.Identifier)

	// A fired entry leaves the pending list.
	pending, err := notifier.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLocalNotifierCancelPreventsDelivery(t *testing.T) {
	sink := newRecordingDelivery()
	notifier := NewLocalNotifier(sink, nil)
	notifier.Start()
	defer notifier.Stop()

	ctx := context.Background()
	id := "task|t1|before|0600|20260901"
	require.NoError(t, notifier.ScheduleAt(ctx, id, time.Now().Add(80*time.Millisecond), Payload{}))
	require.NoError(t, notifier.Cancel(ctx, id))

	select {
	case <-sink.ch:
		t.Fatal("cancelled notification was delivered")
	case <-time.After(200 * time.Millisecond):
	}

	pending, err := notifier.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLocalNotifierReplacesSameIdentifier(t *testing.T) {
	sink := newRecordingDelivery()
	notifier := NewLocalNotifier(sink, nil)
	notifier.Start()
	defer notifier.Stop()

	ctx := context.Background()
	id := "task|t1|after|0600|20260901"
	require.NoError(t, notifier.ScheduleAt(ctx, id, time.Now().Add(time.Hour), Payload{Body: "first"}))
	require.NoError(t, notifier.ScheduleAt(ctx, id, time.Now().Add(30*time.Millisecond), Payload{Body: "second"}))

	pending, err := notifier.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	fired := sink.wait(t)
	assert.Equal(t, "second", fired.Payload.Body)

	select {
	case <-sink.ch:
		t.Fatal("replaced notification fired twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalNotifierCancelAll(t *testing.T) {
	notifier := NewLocalNotifier(newRecordingDelivery(), nil)
	notifier.Start()
	defer notifier.Stop()

	ctx := context.Background()
	require.NoError(t, notifier.ScheduleAt(ctx, "task|t1|after|0600|20260901", time.Now().Add(time.Hour), Payload{}))
	require.NoError(t, notifier.ScheduleAt(ctx, "task|t2|after|0600|20260901", time.Now().Add(time.Hour), Payload{}))

	require.NoError(t, notifier.CancelAll(ctx))
	pending, err := notifier.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLocalNotifierPermission(t *testing.T) {
	ctx := context.Background()

	open := NewLocalNotifier(newRecordingDelivery(), nil)
	granted, err := open.RequestPermission(ctx)
	require.NoError(t, err)
	assert.True(t, granted)

	closed := NewLocalNotifier(newRecordingDelivery(), func(ctx context.Context) (bool, error) {
		return false, nil
	})
	granted, err = closed.RequestPermission(ctx)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestLocalNotifierRejectsZeroTrigger(t *testing.T) {
	notifier := NewLocalNotifier(newRecordingDelivery(), nil)
	err := notifier.ScheduleAt(context.Background(), "task|t1|after|0600|20260901", time.Time{}, Payload{})
	assert.Error(t, err)
}

func TestLocalNotifierStoppedRejectsSchedule(t *testing.T) {
	notifier := NewLocalNotifier(newRecordingDelivery(), nil)
	notifier.Start()
	notifier.Stop()

	err := notifier.ScheduleAt(context.Background(), "task|t1|after|0600|20260901", time.Now().Add(time.Hour), Payload{})
	assert.ErrorIs(t, err, ErrNotifierStopped)
}
