package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCategoryValidate(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		wantErr  string
	}{
		{
			name: "valid with full SLA",
			category: Category{
				Code: "NET",
				SLA:  SLAConfig{ResponseMinutes: intPtr(30), ResolutionMinutes: intPtr(240)},
				Rule: AssignmentRule{RequiredSpecialties: []string{"networking"}},
			},
		},
		{
			name: "valid without SLA",
			category: Category{
				Code: "MISC",
				Rule: AssignmentRule{RequiredSpecialties: []string{"general"}, Priorities: []TicketPriority{TicketPriorityHigh}},
			},
		},
		{
			name:     "missing code",
			category: Category{Rule: AssignmentRule{RequiredSpecialties: []string{"general"}}},
			wantErr:  "category code required",
		},
		{
			name: "resolution shorter than response",
			category: Category{
				Code: "NET",
				SLA:  SLAConfig{ResponseMinutes: intPtr(120), ResolutionMinutes: intPtr(60)},
				Rule: AssignmentRule{RequiredSpecialties: []string{"networking"}},
			},
			wantErr: "resolution minutes must not be shorter than response minutes",
		},
		{
			name:     "no specialties",
			category: Category{Code: "NET"},
			wantErr:  "at least one specialty required",
		},
		{
			name:     "duplicate specialty",
			category: Category{Code: "NET", Rule: AssignmentRule{RequiredSpecialties: []string{"a", "a"}}},
			wantErr:  "duplicate specialty a",
		},
		{
			name: "unknown priority",
			category: Category{
				Code: "NET",
				Rule: AssignmentRule{RequiredSpecialties: []string{"a"}, Priorities: []TicketPriority{"URGENT"}},
			},
			wantErr: `unknown priority "URGENT" in rule`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.category.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestTechnicianHeadroom(t *testing.T) {
	tech := &Technician{WorkloadLimit: 4, CurrentWorkload: 1}
	assert.InDelta(t, 0.75, tech.Headroom(), 1e-9)
	assert.False(t, tech.AtCapacity())

	tech.CurrentWorkload = 5
	assert.InDelta(t, -0.25, tech.Headroom(), 1e-9)
	assert.True(t, tech.AtCapacity())

	assert.Zero(t, (&Technician{}).Headroom())
}

func TestPriorityWeight(t *testing.T) {
	assert.Equal(t, 1, TicketPriorityLow.Weight())
	assert.Equal(t, 4, TicketPriorityCritical.Weight())
	assert.False(t, TicketPriority("URGENT").IsValid())
	assert.True(t, TicketStatusClosed.IsTerminal())
	assert.False(t, TicketStatusResolved.IsTerminal())
	assert.False(t, TicketStatus("REOPENED").IsValid())
}
