package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kurotanX07/game-tracker-app/internal/notify"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repository.NewDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// fakeFacility is an in-memory notification queue for asserting on what the
// scheduler put there.
type fakeFacility struct {
	granted   bool
	scheduled map[string]notify.Scheduled
	failing   map[string]bool
}

func newFakeFacility() *fakeFacility {
	return &fakeFacility{
		granted:   true,
		scheduled: map[string]notify.Scheduled{},
		failing:   map[string]bool{},
	}
}

func (f *fakeFacility) RequestPermission(ctx context.Context) (bool, error) {
	return f.granted, nil
}

func (f *fakeFacility) ListScheduled(ctx context.Context) ([]notify.Scheduled, error) {
	out := make([]notify.Scheduled, 0, len(f.scheduled))
	for _, n := range f.scheduled {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeFacility) ScheduleAt(ctx context.Context, identifier string, at time.Time, payload notify.Payload) error {
	if f.failing[identifier] {
		return fmt.Errorf("quota exceeded")
	}
	f.scheduled[identifier] = notify.Scheduled{Identifier: identifier, TriggerAt: at, Payload: payload}
	return nil
}

func (f *fakeFacility) Cancel(ctx context.Context, identifier string) error {
	delete(f.scheduled, identifier)
	return nil
}

func (f *fakeFacility) CancelAll(ctx context.Context) error {
	f.scheduled = map[string]notify.Scheduled{}
	return nil
}

// forTask returns the scheduled entries whose parsed identifier belongs to
// the task.
func (f *fakeFacility) forTask(taskID string) []notify.Scheduled {
	var out []notify.Scheduled
	for _, n := range f.scheduled {
		id, err := notify.ParseIdentifier(n.Identifier)
		if err == nil && id.TaskID == taskID {
			out = append(out, n)
		}
	}
	return out
}
