// Package sla derives ticket deadlines from category budgets.
package sla

import (
	"math"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Band thresholds in hours, used for urgency coloring.
const (
	redBandHours   = 24
	amberBandHours = 72
)

// Band is a display hint derived from hours remaining.
type Band string

const (
	BandRed   Band = "red"
	BandAmber Band = "amber"
	BandGreen Band = "green"
)

// Calculator computes deadlines and time remaining against a clock.
type Calculator struct {
	now func() time.Time
}

// NewCalculator returns a calculator on the wall clock.
func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// WithClock returns a copy of c reading time from now.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	return &Calculator{now: now}
}

// Now returns the calculator's current time.
func (c *Calculator) Now() time.Time {
	return c.now()
}

// Deadlines returns the response and resolution deadlines for a ticket created at createdAt.
// Either is nil when the category has no budget for it.
func (c *Calculator) Deadlines(createdAt time.Time, cfg domain.SLAConfig) (response, resolution *time.Time) {
	if cfg.ResponseMinutes != nil {
		t := createdAt.Add(time.Duration(*cfg.ResponseMinutes) * time.Minute)
		response = &t
	}
	if cfg.ResolutionMinutes != nil {
		t := createdAt.Add(time.Duration(*cfg.ResolutionMinutes) * time.Minute)
		resolution = &t
	}
	return response, resolution
}

// HoursRemaining is ceil((deadline - now) / 1h). Negative once the deadline passed.
func (c *Calculator) HoursRemaining(deadline time.Time) int {
	return int(math.Ceil(deadline.Sub(c.now()).Hours()))
}

// HoursRemainingOr returns HoursRemaining, or fallback when deadline is nil.
func (c *Calculator) HoursRemainingOr(deadline *time.Time, fallback int) int {
	if deadline == nil {
		return fallback
	}
	return c.HoursRemaining(*deadline)
}

// BandFor classifies hours remaining for display.
func BandFor(hours int) Band {
	switch {
	case hours < redBandHours:
		return BandRed
	case hours < amberBandHours:
		return BandAmber
	default:
		return BandGreen
	}
}
