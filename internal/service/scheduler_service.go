package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kurotanX07/game-tracker-app/internal/model"
)

// SchedulerService wraps cron-based background jobs: the periodic reset
// evaluation and any daily digests.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a job that fires every day at the given wall-clock
// time.
func (s *SchedulerService) ScheduleDaily(t model.TimeOfDay, job func()) (cron.EntryID, error) {
	// cron format: second minute hour dom month dow
	spec := fmt.Sprintf("0 %d %d * * *", t.Minute, t.Hour)
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, job)
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
