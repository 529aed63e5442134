package model

import (
	"errors"
	"fmt"
	"time"
)

// ResetKind selects how a daily task's completion state reverts.
type ResetKind string

const (
	// ResetShared follows the owning game's shared reset schedule.
	ResetShared ResetKind = "shared"
	// ResetCustom follows the task's own reset schedule.
	ResetCustom ResetKind = "custom"
	// ResetDated keeps the task completed until a one-off end date passes.
	ResetDated ResetKind = "dated"
)

var (
	ErrInvalidResetKind = errors.New("model: invalid reset kind")
	ErrEmptyResetTimes  = errors.New("model: reset times must not be empty")
	ErrMissingEndDate   = errors.New("model: dated reset requires an end date")
)

// ResetPolicy is the per-task reset configuration. Kind decides which fields
// are meaningful: Times for custom, EndDate/EndTime for dated. Validate
// rejects any combination where the selected arm's fields are missing.
type ResetPolicy struct {
	Kind        ResetKind   `json:"kind"`
	Times       []TimeOfDay `json:"times,omitempty"`
	EndDate     *Date       `json:"endDate,omitempty"`
	EndTime     *TimeOfDay  `json:"endTime,omitempty"`
	LastResetAt *time.Time  `json:"lastResetAt,omitempty"`
}

// SharedReset is the default policy for new tasks.
func SharedReset() ResetPolicy {
	return ResetPolicy{Kind: ResetShared}
}

func CustomReset(times ...TimeOfDay) ResetPolicy {
	return ResetPolicy{Kind: ResetCustom, Times: times}
}

func DatedReset(endDate Date, endTime *TimeOfDay) ResetPolicy {
	return ResetPolicy{Kind: ResetDated, EndDate: &endDate, EndTime: endTime}
}

func (p ResetPolicy) Validate() error {
	switch p.Kind {
	case ResetShared:
		return nil
	case ResetCustom:
		if len(p.Times) == 0 {
			return ErrEmptyResetTimes
		}
		return nil
	case ResetDated:
		if p.EndDate == nil {
			return ErrMissingEndDate
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResetKind, p.Kind)
	}
}

// Boundary returns the expiry instant of a dated policy. Without an explicit
// end time the task survives through the whole end date, so the boundary is
// the very end of that day.
func (p ResetPolicy) Boundary(loc *time.Location) time.Time {
	if p.Kind != ResetDated || p.EndDate == nil {
		return time.Time{}
	}
	if p.EndTime != nil {
		return p.EndDate.At(*p.EndTime, loc)
	}
	endOfDay := p.EndDate.At(TimeOfDay{Hour: 23, Minute: 59}, loc)
	return endOfDay.Add(59*time.Second + 999*time.Millisecond)
}

// EffectiveResetTimes resolves the reset schedule that applies to a task:
// the game's shared times, the task's own times, or nil for dated tasks,
// which expire once instead of recurring.
func EffectiveResetTimes(game *Game, task *DailyTask) []TimeOfDay {
	switch task.Reset.Kind {
	case ResetCustom:
		return task.Reset.Times
	case ResetDated:
		return nil
	default:
		return game.ResetTimes
	}
}
