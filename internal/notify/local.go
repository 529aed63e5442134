package notify

import (
	"container/heap"
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var ErrNotifierStopped = errors.New("notify: notifier stopped")

type queueItem struct {
	n         Scheduled
	cancelled bool
}

type triggerQueue []*queueItem

func (q triggerQueue) Len() int { return len(q) }

func (q triggerQueue) Less(i, j int) bool {
	return q[i].n.TriggerAt.Before(q[j].n.TriggerAt)
}

func (q triggerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *triggerQueue) Push(x any) {
	*q = append(*q, x.(*queueItem))
}

func (q *triggerQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

// LocalNotifier is an in-process Facility: a timer loop over a min-heap of
// trigger instants that hands due notifications to a Delivery sink.
// Cancellation is lazy; cancelled items are skipped when they surface.
type LocalNotifier struct {
	mu       sync.Mutex
	queue    triggerQueue
	index    map[string]*queueItem
	delivery Delivery

	// permission gates scheduling the way a mobile OS permission prompt
	// would. Nil means always granted.
	permission func(ctx context.Context) (bool, error)

	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

func NewLocalNotifier(delivery Delivery, permission func(ctx context.Context) (bool, error)) *LocalNotifier {
	return &LocalNotifier{
		queue:      make(triggerQueue, 0),
		index:      make(map[string]*queueItem),
		delivery:   delivery,
		permission: permission,
		wakeup:     make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// SetDelivery installs the sink. Call before Start; the bootstrap needs this
// because the sink itself depends on services built on top of the notifier.
func (l *LocalNotifier) SetDelivery(d Delivery) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delivery = d
}

// SetPermission installs the scheduling gate. Call before Start.
func (l *LocalNotifier) SetPermission(p func(ctx context.Context) (bool, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.permission = p
}

// Start launches the timer loop. Safe to call once.
func (l *LocalNotifier) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	heap.Init(&l.queue)
	go l.loop()
}

// Stop halts the loop and waits for it to drain.
func (l *LocalNotifier) Stop() {
	l.mu.Lock()
	if !l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	close(l.stopCh)
	l.mu.Unlock()
	<-l.doneCh
}

func (l *LocalNotifier) RequestPermission(ctx context.Context) (bool, error) {
	if l.permission == nil {
		return true, nil
	}
	return l.permission(ctx)
}

func (l *LocalNotifier) ListScheduled(ctx context.Context) ([]Scheduled, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Scheduled, 0, len(l.index))
	for _, item := range l.index {
		out = append(out, item.n)
	}
	return out, nil
}

// ScheduleAt enqueues a notification. An existing entry with the same
// identifier is replaced.
func (l *LocalNotifier) ScheduleAt(ctx context.Context, identifier string, at time.Time, payload Payload) error {
	if at.IsZero() {
		return errors.New("notify: zero trigger time")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return ErrNotifierStopped
	}

	if prev, ok := l.index[identifier]; ok {
		prev.cancelled = true
	}
	item := &queueItem{n: Scheduled{Identifier: identifier, TriggerAt: at, Payload: payload}}
	l.index[identifier] = item
	heap.Push(&l.queue, item)
	l.signalWakeup()
	return nil
}

func (l *LocalNotifier) Cancel(ctx context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if item, ok := l.index[identifier]; ok {
		item.cancelled = true
		delete(l.index, identifier)
	}
	return nil
}

func (l *LocalNotifier) CancelAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, item := range l.index {
		item.cancelled = true
		delete(l.index, id)
	}
	return nil
}

func (l *LocalNotifier) loop() {
	defer close(l.doneCh)

	var timer *time.Timer
	for {
		next, hasNext := l.peek()
		if !hasNext {
			select {
			case <-l.wakeup:
				continue
			case <-l.stopCh:
				return
			}
		}

		wait := time.Until(next.TriggerAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, due := range l.popDue(time.Now()) {
				if l.delivery == nil {
					log.Printf("[warn] no delivery sink, dropping notification %s", due.Identifier)
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := l.delivery.Deliver(ctx, due); err != nil {
					log.Printf("[warn] deliver notification %s: %v", due.Identifier, err)
				}
				cancel()
			}
		case <-l.wakeup:
			continue
		case <-l.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (l *LocalNotifier) signalWakeup() {
	select {
	case l.wakeup <- struct{}{}:
	default:
	}
}

// peek returns the earliest live entry, discarding cancelled ones on the way.
func (l *LocalNotifier) peek() (Scheduled, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.queue) > 0 {
		if l.queue[0].cancelled {
			heap.Pop(&l.queue)
			continue
		}
		return l.queue[0].n, true
	}
	return Scheduled{}, false
}

func (l *LocalNotifier) popDue(now time.Time) []Scheduled {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Scheduled
	for len(l.queue) > 0 {
		head := l.queue[0]
		if head.cancelled {
			heap.Pop(&l.queue)
			continue
		}
		if head.n.TriggerAt.After(now) {
			break
		}
		heap.Pop(&l.queue)
		delete(l.index, head.n.Identifier)
		out = append(out, head.n)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
