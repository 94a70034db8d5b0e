// Package lifecycle holds the ticket transition table and role policy.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// chain is the ordered progression. CANCELLED and AWAITING_CUSTOMER sit outside it.
var chain = []domain.TicketStatus{
	domain.TicketStatusPending,
	domain.TicketStatusAssigned,
	domain.TicketStatusInProgress,
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
}

// ChainIndex returns the position of status in the ordered chain, or -1.
func ChainIndex(status domain.TicketStatus) int {
	for i, s := range chain {
		if s == status {
			return i
		}
	}
	return -1
}

// TransitionRule is one allowed edge.
type TransitionRule struct {
	From        domain.TicketStatus
	To          domain.TicketStatus
	Description string
}

var validTransitions = []TransitionRule{
	// forward along the chain
	{From: domain.TicketStatusPending, To: domain.TicketStatusAssigned, Description: "Technician assigned"},
	{From: domain.TicketStatusAssigned, To: domain.TicketStatusInProgress, Description: "Work started"},
	{From: domain.TicketStatusInProgress, To: domain.TicketStatusResolved, Description: "Solution delivered"},
	{From: domain.TicketStatusResolved, To: domain.TicketStatusClosed, Description: "Ticket closed"},

	// one step back; the distance rule allows it even though no screen offers it
	{From: domain.TicketStatusAssigned, To: domain.TicketStatusPending, Description: "Returned to queue"},
	{From: domain.TicketStatusInProgress, To: domain.TicketStatusAssigned, Description: "Work paused"},
	{From: domain.TicketStatusResolved, To: domain.TicketStatusInProgress, Description: "Resolution rejected"},

	// waiting on the customer
	{From: domain.TicketStatusInProgress, To: domain.TicketStatusAwaitingCustomer, Description: "Waiting on customer"},
	{From: domain.TicketStatusAwaitingCustomer, To: domain.TicketStatusInProgress, Description: "Customer responded"},

	// cancellation from every non-terminal state
	{From: domain.TicketStatusPending, To: domain.TicketStatusCancelled, Description: "Ticket cancelled"},
	{From: domain.TicketStatusAssigned, To: domain.TicketStatusCancelled, Description: "Ticket cancelled"},
	{From: domain.TicketStatusInProgress, To: domain.TicketStatusCancelled, Description: "Ticket cancelled"},
	{From: domain.TicketStatusAwaitingCustomer, To: domain.TicketStatusCancelled, Description: "Ticket cancelled"},
	{From: domain.TicketStatusResolved, To: domain.TicketStatusCancelled, Description: "Ticket cancelled"},
}

var transitionRuleMap map[string]*TransitionRule

func init() {
	transitionRuleMap = make(map[string]*TransitionRule, len(validTransitions))
	for i := range validTransitions {
		rule := &validTransitions[i]
		transitionRuleMap[makeTransitionKey(rule.From, rule.To)] = rule
	}
}

func makeTransitionKey(from, to domain.TicketStatus) string {
	return string(from) + "->" + string(to)
}

// Request is everything the machine needs to judge a transition.
type Request struct {
	Current             domain.TicketStatus
	Target              domain.TicketStatus
	RequesterID         string
	HasActiveAssignment bool
	Actor               domain.Actor
	Observations        string
	EvidenceCount       int
}

// Machine validates ticket transitions.
type Machine struct{}

// NewMachine creates a state machine.
func NewMachine() *Machine {
	return &Machine{}
}

// GetTransitionRule returns the rule for an edge, or nil if the edge is not allowed.
func (m *Machine) GetTransitionRule(from, to domain.TicketStatus) *TransitionRule {
	return transitionRuleMap[makeTransitionKey(from, to)]
}

// ValidTargets lists the statuses reachable from from.
func (m *Machine) ValidTargets(from domain.TicketStatus) []domain.TicketStatus {
	var targets []domain.TicketStatus
	for _, rule := range validTransitions {
		if rule.From == from {
			targets = append(targets, rule.To)
		}
	}
	return targets
}

// Check returns nil when req is allowed, or the first rule it breaks.
func (m *Machine) Check(req Request) error {
	details := map[string]any{"from": req.Current, "to": req.Target}

	if !req.Target.IsValid() {
		return apperrors.NewBadRequest(apperrors.CodeInvalidState,
			fmt.Sprintf("unknown status %q", req.Target), details)
	}
	if m.GetTransitionRule(req.Current, req.Target) == nil {
		return apperrors.NewIllegalTransition(apperrors.CodeIllegalJump,
			fmt.Sprintf("cannot move ticket from %s to %s", req.Current, req.Target), details)
	}
	if req.Current == domain.TicketStatusPending && req.Target == domain.TicketStatusAssigned && !req.HasActiveAssignment {
		return apperrors.NewIllegalTransition(apperrors.CodeMissingTechnician,
			"ticket has no assigned technician", details)
	}

	action := ActionTransition
	if req.Target == domain.TicketStatusCancelled {
		action = ActionCancel
	}
	if err := Authorize(req.Actor, action, req.RequesterID); err != nil {
		return err
	}

	if strings.TrimSpace(req.Observations) == "" {
		return apperrors.NewBadRequest(apperrors.CodeMissingJustification,
			"observations are required for every status change", details)
	}
	if req.EvidenceCount == 0 && !isOwnerCancellation(req) {
		return apperrors.NewBadRequest(apperrors.CodeMissingEvidence,
			"at least one evidence image is required", details)
	}
	return nil
}

func isOwnerCancellation(req Request) bool {
	return req.Target == domain.TicketStatusCancelled && req.Actor.UserID != "" && req.Actor.UserID == req.RequesterID
}
