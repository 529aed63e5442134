package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kurotanX07/game-tracker-app/internal/model"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
)

// TaskService wraps game and task lifecycle operations. Anything that
// removes a task or changes its schedule also reconciles the notification
// queue, so no reminder outlives its task.
type TaskService struct {
	games         *repository.GameRepository
	prefs         *repository.SettingRepository
	notifications *NotificationService
}

func NewTaskService(games *repository.GameRepository, prefs *repository.SettingRepository, notifications *NotificationService) *TaskService {
	return &TaskService{games: games, prefs: prefs, notifications: notifications}
}

// Games lists every game with its tasks.
func (s *TaskService) Games(ctx context.Context) ([]model.Game, error) {
	return s.games.Load(ctx)
}

// CreateGame stores a new game with shared-policy daily tasks for each name.
func (s *TaskService) CreateGame(ctx context.Context, name string, resetTimes []model.TimeOfDay, taskNames ...string) (*model.Game, error) {
	game := model.NewGame(name, resetTimes...)
	for _, taskName := range taskNames {
		game.DailyTasks = append(game.DailyTasks, model.NewDailyTask(taskName))
	}
	if err := s.games.Add(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// AddDailyTask appends a shared-policy task to a game.
func (s *TaskService) AddDailyTask(ctx context.Context, gameID, name string) (*model.DailyTask, error) {
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	task := model.NewDailyTask(name)
	task.GameID = game.ID
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.games.SaveTask(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AddCustomTask appends a checkbox or counter task to a game.
func (s *TaskService) AddCustomTask(ctx context.Context, gameID, name string, typ model.CustomTaskType, maxValue int) (*model.CustomTask, error) {
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	task := model.NewCustomTask(name, typ, maxValue)
	task.GameID = game.ID
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.games.SaveCustomTask(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleDailyTask flips a task's completion state for the current cycle.
func (s *TaskService) ToggleDailyTask(ctx context.Context, gameID, taskID string, at time.Time) (*model.DailyTask, error) {
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	task := game.Task(taskID)
	if task == nil {
		return nil, fmt.Errorf("task %s not found in game %s", taskID, gameID)
	}
	task.ToggleCompleted(at)
	if err := s.games.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// AdvanceCustomTask progresses a custom task (toggle or count up).
func (s *TaskService) AdvanceCustomTask(ctx context.Context, gameID, taskID string) (*model.CustomTask, error) {
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for i := range game.CustomTasks {
		if game.CustomTasks[i].ID == taskID {
			task := &game.CustomTasks[i]
			task.Advance()
			if err := s.games.SaveCustomTask(ctx, task); err != nil {
				return nil, err
			}
			return task, nil
		}
	}
	return nil, fmt.Errorf("custom task %s not found in game %s", taskID, gameID)
}

// UpdateGameResetTimes replaces the shared schedule. An empty list is a
// validation error and nothing is applied. Tasks following the shared
// schedule get their notifications re-derived.
func (s *TaskService) UpdateGameResetTimes(ctx context.Context, gameID string, times []model.TimeOfDay) error {
	if len(times) == 0 {
		return model.ErrNoGameResetTimes
	}
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return err
	}
	game.ResetTimes = times
	if err := s.games.SaveGame(ctx, game); err != nil {
		return err
	}
	for i := range game.DailyTasks {
		task := &game.DailyTasks[i]
		if task.Reset.Kind == model.ResetShared {
			s.notifications.ScheduleForTask(ctx, game, task)
		}
	}
	return nil
}

// UpdateTaskReset swaps a task's reset policy, carrying the last-reset
// marker over so the next evaluation doesn't double-fire, then re-derives
// the task's notifications.
func (s *TaskService) UpdateTaskReset(ctx context.Context, gameID, taskID string, policy model.ResetPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return err
	}
	task := game.Task(taskID)
	if task == nil {
		return fmt.Errorf("task %s not found in game %s", taskID, gameID)
	}
	policy.LastResetAt = task.Reset.LastResetAt
	task.Reset = policy
	if err := s.games.SaveTask(ctx, task); err != nil {
		return err
	}
	s.notifications.ScheduleForTask(ctx, game, task)
	return nil
}

// RemoveGame deletes a game after cancelling every task's notifications and
// forgetting their preferences.
func (s *TaskService) RemoveGame(ctx context.Context, gameID string) error {
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return err
	}
	for _, task := range game.DailyTasks {
		s.forgetTask(ctx, task.ID)
	}
	return s.games.Delete(ctx, gameID)
}

// RemoveDailyTask deletes one task, its notifications and its preference.
func (s *TaskService) RemoveDailyTask(ctx context.Context, gameID, taskID string) error {
	game, err := s.games.FindGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Task(taskID) == nil {
		return fmt.Errorf("task %s not found in game %s", taskID, gameID)
	}
	s.forgetTask(ctx, taskID)
	return s.games.DeleteTask(ctx, taskID)
}

// RemoveCustomTask deletes one custom task.
func (s *TaskService) RemoveCustomTask(ctx context.Context, gameID, taskID string) error {
	if _, err := s.games.FindGame(ctx, gameID); err != nil {
		return err
	}
	return s.games.DeleteCustomTask(ctx, taskID)
}

func (s *TaskService) forgetTask(ctx context.Context, taskID string) {
	s.notifications.CancelForTask(ctx, taskID)
	if err := s.prefs.DeletePreference(ctx, taskID); err != nil {
		// Preference rows for dead tasks are harmless, only worth a log line.
		log.Printf("[warn] delete preference for task %s: %v", taskID, err)
	}
}
