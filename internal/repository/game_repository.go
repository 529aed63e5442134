package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kurotanX07/game-tracker-app/internal/model"
)

// GameRepository persists games together with their owned tasks.
type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// Load returns every game with its tasks attached.
func (r *GameRepository) Load(ctx context.Context) ([]model.Game, error) {
	var games []model.Game
	if err := r.db.WithContext(ctx).
		Preload("DailyTasks").
		Preload("CustomTasks").
		Order("created_at").
		Find(&games).Error; err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	return games, nil
}

// FindGame returns one game with its tasks, or gorm.ErrRecordNotFound.
func (r *GameRepository) FindGame(ctx context.Context, gameID string) (*model.Game, error) {
	var game model.Game
	if err := r.db.WithContext(ctx).
		Preload("DailyTasks").
		Preload("CustomTasks").
		Where("id = ?", gameID).
		First(&game).Error; err != nil {
		return nil, fmt.Errorf("find game %s: %w", gameID, err)
	}
	return &game, nil
}

// Add validates and stores a new game with all its tasks.
func (r *GameRepository) Add(ctx context.Context, game *model.Game) error {
	if err := game.Validate(); err != nil {
		return err
	}
	for i := range game.DailyTasks {
		game.DailyTasks[i].GameID = game.ID
	}
	for i := range game.CustomTasks {
		game.CustomTasks[i].GameID = game.ID
	}
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// SaveAll writes every game and its tasks in a single transaction, so a
// failed write leaves the previously persisted state authoritative.
func (r *GameRepository) SaveAll(ctx context.Context, games []model.Game) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		full := tx.Session(&gorm.Session{FullSaveAssociations: true})
		for i := range games {
			if err := full.Save(&games[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save games: %w", err)
	}
	return nil
}

// SaveGame writes one game and its tasks.
func (r *GameRepository) SaveGame(ctx context.Context, game *model.Game) error {
	if err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(game).Error; err != nil {
		return fmt.Errorf("save game %s: %w", game.ID, err)
	}
	return nil
}

// SaveTask writes one daily task.
func (r *GameRepository) SaveTask(ctx context.Context, task *model.DailyTask) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}

// SaveCustomTask writes one custom task.
func (r *GameRepository) SaveCustomTask(ctx context.Context, task *model.CustomTask) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save custom task %s: %w", task.ID, err)
	}
	return nil
}

// Delete removes a game and its tasks.
func (r *GameRepository) Delete(ctx context.Context, gameID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&model.DailyTask{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&model.CustomTask{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", gameID).Delete(&model.Game{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	return nil
}

// DeleteTask removes a single daily task.
func (r *GameRepository) DeleteTask(ctx context.Context, taskID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).Delete(&model.DailyTask{}).Error; err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

// DeleteCustomTask removes a single custom task.
func (r *GameRepository) DeleteCustomTask(ctx context.Context, taskID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).Delete(&model.CustomTask{}).Error; err != nil {
		return fmt.Errorf("delete custom task %s: %w", taskID, err)
	}
	return nil
}

// ReplaceAll swaps the whole game list for a new one in a single
// transaction. Used by data import.
func (r *GameRepository) ReplaceAll(ctx context.Context, games []model.Game) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.DailyTask{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.CustomTask{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Game{}).Error; err != nil {
			return err
		}
		for i := range games {
			for j := range games[i].DailyTasks {
				games[i].DailyTasks[j].GameID = games[i].ID
			}
			for j := range games[i].CustomTasks {
				games[i].CustomTasks[j].GameID = games[i].ID
			}
			if err := tx.Create(&games[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace games: %w", err)
	}
	return nil
}
