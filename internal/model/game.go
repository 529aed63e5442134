package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName        = errors.New("model: name is required")
	ErrNoGameResetTimes = errors.New("model: game needs at least one reset time")
)

// Game groups the daily tasks of one tracked game and carries the shared
// reset schedule tasks opt into by default.
type Game struct {
	ID          string       `gorm:"primaryKey" json:"id"`
	Name        string       `json:"name"`
	ResetTimes  []TimeOfDay  `gorm:"serializer:json" json:"resetTimes"`
	DailyTasks  []DailyTask  `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"dailyTasks"`
	CustomTasks []CustomTask `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"customTasks"`
	CreatedAt   time.Time    `json:"-"`
	UpdatedAt   time.Time    `json:"-"`
}

func NewGame(name string, resetTimes ...TimeOfDay) *Game {
	return &Game{
		ID:         uuid.NewString(),
		Name:       name,
		ResetTimes: resetTimes,
	}
}

func (g *Game) Validate() error {
	if g.Name == "" {
		return ErrEmptyName
	}
	if len(g.ResetTimes) == 0 {
		return ErrNoGameResetTimes
	}
	for _, task := range g.DailyTasks {
		if err := task.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Task finds a daily task by id. Returns nil when absent.
func (g *Game) Task(taskID string) *DailyTask {
	for i := range g.DailyTasks {
		if g.DailyTasks[i].ID == taskID {
			return &g.DailyTasks[i]
		}
	}
	return nil
}

// NextSharedReset returns the nearest upcoming instant among the game's
// shared reset times. The zero time means the game has no schedule.
func (g *Game) NextSharedReset(now time.Time) time.Time {
	var next time.Time
	for _, t := range g.ResetTimes {
		occ := t.NextOccurrence(now)
		if next.IsZero() || occ.Before(next) {
			next = occ
		}
	}
	return next
}
