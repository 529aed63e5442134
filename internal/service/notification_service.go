package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kurotanX07/game-tracker-app/internal/model"
	"github.com/kurotanX07/game-tracker-app/internal/notify"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
)

// NotificationService keeps the host notification queue in sync with task
// reset schedules and per-task preferences. Re-scheduling is an idempotent
// cancel-then-add: at any instant a task has at most one live "before" and
// one live "after" entry per reset time.
type NotificationService struct {
	notifier notify.Facility
	prefs    *repository.SettingRepository
	clock    func() time.Time

	mu          sync.Mutex
	initialized bool
}

func NewNotificationService(notifier notify.Facility, prefs *repository.SettingRepository) *NotificationService {
	return &NotificationService{
		notifier: notifier,
		prefs:    prefs,
		clock:    time.Now,
	}
}

// Preference returns the stored or default preference for a task.
func (s *NotificationService) Preference(ctx context.Context, taskID string) model.NotificationPreference {
	pref, err := s.prefs.GetPreference(ctx, taskID)
	if err != nil {
		log.Printf("[warn] read preference for task %s: %v", taskID, err)
	}
	return pref
}

// SetPreference persists a task's preference and brings the notification
// queue in line with it. This is a user-triggered save, so storage errors
// propagate to the caller.
func (s *NotificationService) SetPreference(ctx context.Context, game *model.Game, task *model.DailyTask, pref model.NotificationPreference) error {
	if err := s.prefs.SetPreference(ctx, task.ID, pref); err != nil {
		return fmt.Errorf("save preference for task %s: %w", task.ID, err)
	}
	if pref.Enabled {
		s.ScheduleForTask(ctx, game, task)
	} else {
		s.CancelForTask(ctx, task.ID)
	}
	return nil
}

// ScheduleForTask replaces the task's scheduled notifications with a fresh
// set derived from its reset policy and preference. Reports whether at least
// one notification was scheduled.
func (s *NotificationService) ScheduleForTask(ctx context.Context, game *model.Game, task *model.DailyTask) bool {
	pref := s.Preference(ctx, task.ID)
	if !pref.Enabled {
		s.CancelForTask(ctx, task.ID)
		return false
	}

	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		log.Printf("[warn] notification permission check: %v", err)
		return false
	}
	if !granted {
		log.Printf("[info] notification permission not granted, skipping task %s", task.ID)
		return false
	}

	if task.Reset.Kind == model.ResetDated {
		return s.scheduleDated(ctx, game, task, pref)
	}
	return s.scheduleRecurring(ctx, game, task, pref)
}

// scheduleDated sets the single expiry reminder of a dated task.
func (s *NotificationService) scheduleDated(ctx context.Context, game *model.Game, task *model.DailyTask, pref model.NotificationPreference) bool {
	now := s.clock()
	boundary := task.Reset.Boundary(now.Location())
	if boundary.IsZero() {
		return false
	}

	remindAt := boundary.Add(-time.Duration(pref.BeforeMinutes) * time.Minute)
	if !remindAt.After(now) {
		log.Printf("[info] task %s deadline %s already passed, nothing to schedule", task.ID, boundary.Format(time.RFC3339))
		return false
	}

	s.CancelForTask(ctx, task.ID)

	clock := "2359"
	if task.Reset.EndTime != nil {
		clock = task.Reset.EndTime.Compact()
	}
	id := notify.Identifier{
		TaskID: task.ID,
		Phase:  notify.PhaseEndDate,
		Clock:  clock,
		Day:    task.Reset.EndDate.Compact(),
	}
	payload := notify.Payload{
		Title:  fmt.Sprintf("%s: deadline approaching", game.Name),
		Body:   fmt.Sprintf("%q expires in %d minutes", task.Name, pref.BeforeMinutes),
		GameID: game.ID,
		TaskID: task.ID,
		Phase:  notify.PhaseEndDate,
	}
	if err := s.notifier.ScheduleAt(ctx, id.String(), remindAt, payload); err != nil {
		log.Printf("[warn] schedule expiry reminder for task %s: %v", task.ID, err)
		return false
	}
	return true
}

// scheduleRecurring sets the before/after pair for each applicable reset time.
func (s *NotificationService) scheduleRecurring(ctx context.Context, game *model.Game, task *model.DailyTask, pref model.NotificationPreference) bool {
	times := model.EffectiveResetTimes(game, task)
	if len(times) == 0 {
		log.Printf("[info] task %s has no reset times, nothing to schedule", task.ID)
		return false
	}

	s.CancelForTask(ctx, task.ID)

	now := s.clock()
	scheduled := 0
	for _, tod := range times {
		resetAt := tod.NextOccurrence(now)
		day := model.DateOf(resetAt).Compact()

		if beforeAt, ok := tod.NextOccurrenceMinus(pref.BeforeMinutes, now); ok {
			id := notify.Identifier{TaskID: task.ID, Phase: notify.PhaseBefore, Clock: tod.Compact(), Day: day}
			payload := notify.Payload{
				Title:  fmt.Sprintf("%s: reset soon", game.Name),
				Body:   fmt.Sprintf("%q resets in %d minutes", task.Name, pref.BeforeMinutes),
				GameID: game.ID,
				TaskID: task.ID,
				Phase:  notify.PhaseBefore,
			}
			if err := s.notifier.ScheduleAt(ctx, id.String(), beforeAt, payload); err != nil {
				log.Printf("[warn] schedule %s reminder for task %s: %v", tod, task.ID, err)
			} else {
				scheduled++
			}
		}

		if pref.NotifyOnReset {
			id := notify.Identifier{TaskID: task.ID, Phase: notify.PhaseAfter, Clock: tod.Compact(), Day: day}
			payload := notify.Payload{
				Title:  fmt.Sprintf("%s: tasks reset", game.Name),
				Body:   fmt.Sprintf("%q has been reset", task.Name),
				GameID: game.ID,
				TaskID: task.ID,
				Phase:  notify.PhaseAfter,
			}
			if err := s.notifier.ScheduleAt(ctx, id.String(), resetAt, payload); err != nil {
				log.Printf("[warn] schedule %s confirmation for task %s: %v", tod, task.ID, err)
			} else {
				scheduled++
			}
		}
	}

	if scheduled > 0 {
		log.Printf("[info] scheduled %d notification(s) for task %s", scheduled, task.ID)
	}
	return scheduled > 0
}

// CancelForTask removes every scheduled notification belonging to the task
// and returns how many were cancelled. Identifiers are parsed, not substring
// matched, so task ids that prefix one another cannot collide.
func (s *NotificationService) CancelForTask(ctx context.Context, taskID string) int {
	pending, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		log.Printf("[warn] list scheduled notifications: %v", err)
		return 0
	}

	cancelled := 0
	for _, n := range pending {
		id, err := notify.ParseIdentifier(n.Identifier)
		if err != nil || id.TaskID != taskID {
			continue
		}
		if err := s.notifier.Cancel(ctx, n.Identifier); err != nil {
			log.Printf("[warn] cancel notification %s: %v", n.Identifier, err)
			continue
		}
		cancelled++
	}
	if cancelled > 0 {
		log.Printf("[info] cancelled %d notification(s) for task %s", cancelled, taskID)
	}
	return cancelled
}

// UpdateAll walks every task of every game: enabled tasks are re-scheduled,
// disabled ones are cancelled defensively in case stale entries linger. A
// single task's failure never aborts the rest of the batch.
func (s *NotificationService) UpdateAll(ctx context.Context, games []model.Game) bool {
	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil || !granted {
		log.Printf("[info] notification permission not granted, skipping update")
		return false
	}

	enabled, scheduled := 0, 0
	known := map[string]bool{}
	for gi := range games {
		game := &games[gi]
		for ti := range game.DailyTasks {
			task := &game.DailyTasks[ti]
			known[task.ID] = true
			if s.Preference(ctx, task.ID).Enabled {
				enabled++
				if s.ScheduleForTask(ctx, game, task) {
					scheduled++
				}
			} else {
				s.CancelForTask(ctx, task.ID)
			}
		}
	}
	s.pruneUnknown(ctx, known)

	log.Printf("[info] notification update: %d/%d enabled task(s) scheduled", scheduled, enabled)
	return true
}

// pruneUnknown drops queue entries whose task no longer exists, which
// happens when an import bulk-replaces the game list.
func (s *NotificationService) pruneUnknown(ctx context.Context, known map[string]bool) {
	pending, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		log.Printf("[warn] list scheduled notifications: %v", err)
		return
	}
	for _, n := range pending {
		id, err := notify.ParseIdentifier(n.Identifier)
		if err != nil || known[id.TaskID] {
			continue
		}
		if err := s.notifier.Cancel(ctx, n.Identifier); err != nil {
			log.Printf("[warn] cancel stale notification %s: %v", n.Identifier, err)
		}
	}
}

// Initialize runs the full notification setup once per process: it clears
// the queue and re-schedules everything. Repeat calls within the same
// session are suppressed; the guard resets on restart.
func (s *NotificationService) Initialize(ctx context.Context, games []model.Game) bool {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		log.Printf("[info] notifications already initialized this session")
		return true
	}
	s.mu.Unlock()

	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil || !granted {
		log.Printf("[info] notification permission not granted, skipping initialization")
		return false
	}

	if err := s.notifier.CancelAll(ctx); err != nil {
		log.Printf("[warn] clear notification queue: %v", err)
	}
	ok := s.UpdateAll(ctx, games)

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return ok
}
