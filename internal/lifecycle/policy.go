package lifecycle

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Action is something a role may be allowed to do.
type Action string

const (
	ActionCreateTicket        Action = "ticket:create"
	ActionViewTicket          Action = "ticket:view"
	ActionTransition          Action = "ticket:transition"
	ActionCancel              Action = "ticket:cancel"
	ActionRunAutotriage       Action = "assignment:autotriage"
	ActionAssignManually      Action = "assignment:manual"
	ActionViewAssignmentQueue Action = "assignment:queue"
)

// Scope limits an allowed action to the caller's own tickets or opens it to all.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAny
)

type policyKey struct {
	role   domain.Role
	action Action
}

// policies is the single (role, action) table. Missing entries are denied.
var policies = map[policyKey]Scope{
	{domain.RoleCustomer, ActionCreateTicket}: ScopeAny,
	{domain.RoleCustomer, ActionViewTicket}:   ScopeOwn,
	{domain.RoleCustomer, ActionCancel}:       ScopeOwn,

	{domain.RoleTechnician, ActionCreateTicket}: ScopeAny,
	{domain.RoleTechnician, ActionViewTicket}:   ScopeAny,
	{domain.RoleTechnician, ActionTransition}:   ScopeAny,
	{domain.RoleTechnician, ActionCancel}:       ScopeAny,

	{domain.RoleAdmin, ActionCreateTicket}:        ScopeAny,
	{domain.RoleAdmin, ActionViewTicket}:          ScopeAny,
	{domain.RoleAdmin, ActionTransition}:          ScopeAny,
	{domain.RoleAdmin, ActionCancel}:              ScopeAny,
	{domain.RoleAdmin, ActionRunAutotriage}:       ScopeAny,
	{domain.RoleAdmin, ActionAssignManually}:      ScopeAny,
	{domain.RoleAdmin, ActionViewAssignmentQueue}: ScopeAny,
}

// ScopeFor returns how far role may perform action.
func ScopeFor(role domain.Role, action Action) Scope {
	return policies[policyKey{role: role, action: action}]
}

// Authorize checks actor against the policy table. ownerID is the requester of the
// ticket involved, or empty when the action is not about a single ticket.
func Authorize(actor domain.Actor, action Action, ownerID string) error {
	switch ScopeFor(actor.Role, action) {
	case ScopeAny:
		return nil
	case ScopeOwn:
		if ownerID != "" && actor.UserID == ownerID {
			return nil
		}
		return apperrors.NewForbidden("action limited to the ticket's requester")
	default:
		return apperrors.NewForbidden("role not permitted for this action")
	}
}
