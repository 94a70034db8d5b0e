package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SLAConfig holds the per-category service level budgets.
type SLAConfig struct {
	ResponseMinutes   *int
	ResolutionMinutes *int
	UrgencyLevel      int
}

// AssignmentRule describes which technicians may receive a category's tickets.
type AssignmentRule struct {
	RequiredSpecialties []string
	// Priorities restricts automatic assignment to these priorities; empty means all.
	Priorities []TicketPriority
}

// AllowsPriority reports whether automatic assignment applies to p.
func (r AssignmentRule) AllowsPriority(p TicketPriority) bool {
	if len(r.Priorities) == 0 {
		return true
	}
	for _, allowed := range r.Priorities {
		if allowed == p {
			return true
		}
	}
	return false
}

// Category groups tickets and carries their SLA and assignment rule.
type Category struct {
	ID        string
	Code      string
	Name      string
	SLA       SLAConfig
	Rule      AssignmentRule
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the category before it is written.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return errors.New("category code required")
	}
	if c.SLA.ResponseMinutes != nil && *c.SLA.ResponseMinutes <= 0 {
		return errors.New("response minutes must be positive")
	}
	if c.SLA.ResolutionMinutes != nil && *c.SLA.ResolutionMinutes <= 0 {
		return errors.New("resolution minutes must be positive")
	}
	if c.SLA.ResponseMinutes != nil && c.SLA.ResolutionMinutes != nil &&
		*c.SLA.ResolutionMinutes < *c.SLA.ResponseMinutes {
		return errors.New("resolution minutes must not be shorter than response minutes")
	}
	if len(c.Rule.RequiredSpecialties) == 0 {
		return errors.New("at least one specialty required")
	}
	seen := make(map[string]struct{}, len(c.Rule.RequiredSpecialties))
	for _, id := range c.Rule.RequiredSpecialties {
		if strings.TrimSpace(id) == "" {
			return errors.New("blank specialty id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate specialty %s", id)
		}
		seen[id] = struct{}{}
	}
	for _, p := range c.Rule.Priorities {
		if !p.IsValid() {
			return fmt.Errorf("unknown priority %q in rule", p)
		}
	}
	return nil
}
