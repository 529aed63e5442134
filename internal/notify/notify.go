// Package notify defines the local-notification facility the scheduler talks
// to, plus an in-process implementation that fires due notifications into a
// delivery sink.
package notify

import (
	"context"
	"time"
)

// Phase says which moment of a reset cycle a notification targets.
type Phase string

const (
	// PhaseBefore is the lead-time reminder ahead of a reset.
	PhaseBefore Phase = "before"
	// PhaseAfter is the confirmation at the reset boundary itself.
	PhaseAfter Phase = "after"
	// PhaseEndDate is the single expiry reminder of a dated task.
	PhaseEndDate Phase = "enddate"
)

// Payload is what the user eventually sees.
type Payload struct {
	Title  string
	Body   string
	GameID string
	TaskID string
	Phase  Phase
}

// Scheduled is one pending notification as reported by the facility.
type Scheduled struct {
	Identifier string
	TriggerAt  time.Time
	Payload    Payload
}

// Facility is the host notification queue. Scheduling the same identifier
// twice replaces the earlier entry.
type Facility interface {
	RequestPermission(ctx context.Context) (bool, error)
	ListScheduled(ctx context.Context) ([]Scheduled, error)
	ScheduleAt(ctx context.Context, identifier string, at time.Time, payload Payload) error
	Cancel(ctx context.Context, identifier string) error
	CancelAll(ctx context.Context) error
}

// Delivery receives notifications the moment they come due.
type Delivery interface {
	Deliver(ctx context.Context, n Scheduled) error
}
