package model

import "errors"

var ErrNegativeLeadTime = errors.New("model: lead time must not be negative")

// NotificationPreference holds per-task reminder settings, stored separately
// from the task itself and keyed by task id.
type NotificationPreference struct {
	Enabled       bool `json:"enabled"`
	BeforeMinutes int  `json:"beforeMinutes"`
	NotifyOnReset bool `json:"notifyOnReset"`
}

// DefaultNotificationPreference is what a task gets before the user has ever
// touched its settings: notifications off, 5-minute lead, at-reset ping on.
func DefaultNotificationPreference() NotificationPreference {
	return NotificationPreference{
		Enabled:       false,
		BeforeMinutes: 5,
		NotifyOnReset: true,
	}
}

func (p NotificationPreference) Validate() error {
	if p.BeforeMinutes < 0 {
		return ErrNegativeLeadTime
	}
	return nil
}
