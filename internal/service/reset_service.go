package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kurotanX07/game-tracker-app/internal/model"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
)

// ResetService reverts completed daily tasks once their reset boundary has
// been crossed. It runs on every data load and on a periodic job, so a pass
// over an already-reset list must change nothing.
type ResetService struct {
	games *repository.GameRepository
}

func NewResetService(games *repository.GameRepository) *ResetService {
	return &ResetService{games: games}
}

// EvaluateAll scans every task, applies due resets in memory and persists
// the result as one batch. When the write fails the error is returned and no
// game list is handed out: the previously persisted state stays authoritative
// and the next invocation retries naturally.
func (s *ResetService) EvaluateAll(ctx context.Context, now time.Time) ([]model.Game, error) {
	games, err := s.games.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset evaluation: %w", err)
	}

	changed := 0
	for gi := range games {
		for ti := range games[gi].DailyTasks {
			if Evaluate(&games[gi], &games[gi].DailyTasks[ti], now) {
				changed++
			}
		}
	}

	if changed > 0 {
		if err := s.games.SaveAll(ctx, games); err != nil {
			return nil, fmt.Errorf("reset evaluation: %w", err)
		}
		log.Printf("[info] reset %d task(s)", changed)
	}
	return games, nil
}

// Evaluate applies the reset rules to a single task and reports whether it
// changed. Dated tasks expire exactly once after their boundary; recurring
// tasks reset when any of today's boundaries has been crossed since the last
// recorded reset. One reset per pass is enough, several crossed boundaries
// all mean "reset now".
func Evaluate(game *model.Game, task *model.DailyTask, now time.Time) bool {
	last := task.Reset.LastResetAt

	if task.Reset.Kind == model.ResetDated {
		boundary := task.Reset.Boundary(now.Location())
		if boundary.IsZero() || !now.After(boundary) {
			return false
		}
		if last != nil && !last.Before(boundary) {
			return false
		}
		applyReset(task, now)
		return true
	}

	for _, tod := range model.EffectiveResetTimes(game, task) {
		boundary := tod.OnDate(now)
		if now.Before(boundary) {
			continue
		}
		if last != nil && !last.Before(boundary) {
			continue
		}
		applyReset(task, now)
		return true
	}
	return false
}

func applyReset(task *model.DailyTask, now time.Time) {
	task.Completed = false
	task.LastCompletedAt = nil
	at := now
	task.Reset.LastResetAt = &at
}
