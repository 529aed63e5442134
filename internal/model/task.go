package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DailyTask is a repeatable task whose completion state reverts on the
// schedule described by its reset policy.
type DailyTask struct {
	ID              string      `gorm:"primaryKey" json:"id"`
	GameID          string      `gorm:"index" json:"-"`
	Name            string      `json:"name"`
	Completed       bool        `json:"completed"`
	LastCompletedAt *time.Time  `json:"lastCompletedAt,omitempty"`
	Reset           ResetPolicy `gorm:"serializer:json" json:"resetSettings"`
	CreatedAt       time.Time   `json:"-"`
	UpdatedAt       time.Time   `json:"-"`
}

// NewDailyTask creates a task that follows the owning game's shared schedule.
func NewDailyTask(name string) DailyTask {
	return DailyTask{
		ID:    uuid.NewString(),
		Name:  name,
		Reset: SharedReset(),
	}
}

func (t *DailyTask) Validate() error {
	if t.Name == "" {
		return ErrEmptyName
	}
	return t.Reset.Validate()
}

// ToggleCompleted flips the completion state, stamping or clearing
// LastCompletedAt accordingly.
func (t *DailyTask) ToggleCompleted(now time.Time) {
	if t.Completed {
		t.Completed = false
		t.LastCompletedAt = nil
		return
	}
	t.Completed = true
	at := now
	t.LastCompletedAt = &at
}

// CustomTaskType distinguishes one-off checkbox tasks from counters.
type CustomTaskType string

const (
	CustomCheckbox CustomTaskType = "checkbox"
	CustomCounter  CustomTaskType = "counter"
)

var ErrInvalidCustomTaskType = errors.New("model: invalid custom task type")

// CustomTask is a free-form task outside the reset cycle: either a plain
// checkbox or a counter with an optional target value.
type CustomTask struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	GameID    string         `gorm:"index" json:"-"`
	Name      string         `json:"name"`
	Type      CustomTaskType `json:"type"`
	Value     int            `json:"value,omitempty"`
	MaxValue  int            `json:"maxValue,omitempty"`
	Completed bool           `json:"completed"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

func NewCustomTask(name string, typ CustomTaskType, maxValue int) CustomTask {
	return CustomTask{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     typ,
		MaxValue: maxValue,
	}
}

func (t *CustomTask) Validate() error {
	if t.Name == "" {
		return ErrEmptyName
	}
	if t.Type != CustomCheckbox && t.Type != CustomCounter {
		return ErrInvalidCustomTaskType
	}
	return nil
}

// Advance progresses the task: toggles a checkbox, increments a counter.
// A counter with a target completes when the target is reached.
func (t *CustomTask) Advance() {
	switch t.Type {
	case CustomCounter:
		t.Value++
		if t.MaxValue > 0 && t.Value >= t.MaxValue {
			t.Completed = true
		}
	default:
		t.Completed = !t.Completed
	}
}
