package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kurotanX07/game-tracker-app/internal/model"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
)

var ErrEmptyImport = errors.New("service: import contains no games")

// TransferService turns the game list into portable JSON and back. Import
// replaces the whole list, after which every notification is re-derived from
// the new data.
type TransferService struct {
	games         *repository.GameRepository
	notifications *NotificationService
}

func NewTransferService(games *repository.GameRepository, notifications *NotificationService) *TransferService {
	return &TransferService{games: games, notifications: notifications}
}

// Export renders the current game list as indented JSON. Timestamps are
// RFC 3339 strings and survive a round trip through Import.
func (s *TransferService) Export(ctx context.Context) ([]byte, error) {
	games, err := s.games.Load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode games: %w", err)
	}
	return data, nil
}

// importGame sniffs the legacy export shape: a single resetTime string
// instead of resetTimes.
type importGame struct {
	ResetTime string `json:"resetTime"`
}

// Import parses, normalizes and validates a game list, replaces the stored
// one in a single transaction, then re-runs the full notification update as
// the bulk-replace contract requires.
func (s *TransferService) Import(ctx context.Context, data []byte) ([]model.Game, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyImport
	}

	games := make([]model.Game, 0, len(raw))
	for _, entry := range raw {
		game, err := normalizeImportedGame(entry)
		if err != nil {
			return nil, err
		}
		if err := game.Validate(); err != nil {
			return nil, err
		}
		games = append(games, *game)
	}

	if err := s.games.ReplaceAll(ctx, games); err != nil {
		return nil, err
	}
	s.notifications.UpdateAll(ctx, games)
	return games, nil
}

func normalizeImportedGame(entry json.RawMessage) (*model.Game, error) {
	var game model.Game
	if err := json.Unmarshal(entry, &game); err != nil {
		return nil, fmt.Errorf("decode imported game: %w", err)
	}
	var in importGame
	if err := json.Unmarshal(entry, &in); err != nil {
		return nil, fmt.Errorf("decode imported game: %w", err)
	}

	if game.ID == "" {
		game.ID = uuid.NewString()
	}
	if len(game.ResetTimes) == 0 && in.ResetTime != "" {
		t, err := model.ParseTimeOfDay(in.ResetTime)
		if err != nil {
			return nil, err
		}
		game.ResetTimes = []model.TimeOfDay{t}
	}
	for i := range game.DailyTasks {
		task := &game.DailyTasks[i]
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if task.Reset.Kind == "" {
			task.Reset = model.SharedReset()
		}
	}
	for i := range game.CustomTasks {
		if game.CustomTasks[i].ID == "" {
			game.CustomTasks[i].ID = uuid.NewString()
		}
	}
	return &game, nil
}
