package orchestrator

import (
	"testing"

	"agri-assist-be/pkg/policy"

	"github.com/stretchr/testify/assert"
)

func TestPreflight(t *testing.T) {
	tests := []struct {
		name     string
		question string
		role     policy.Role
		blocked  bool
	}{
		{
			name:     "farmer asks about salaries",
			question: "What is the average salary of field workers?",
			role:     policy.RoleFarmer,
			blocked:  true,
		},
		{
			name:     "farmer asks about soil",
			question: "How can I improve soil health before planting?",
			role:     policy.RoleFarmer,
			blocked:  false,
		},
		{
			name:     "hr asks about crops",
			question: "Which crop had the best harvest this season?",
			role:     policy.RoleHR,
			blocked:  true,
		},
		{
			name:     "hr asks about hiring",
			question: "What is the hiring process for seasonal workers?",
			role:     policy.RoleHR,
			blocked:  false,
		},
		{
			name:     "finance officer asks about irrigation",
			question: "When does the irrigation cycle run?",
			role:     policy.RoleFinanceOfficer,
			blocked:  true,
		},
		{
			name:     "finance officer asks about revenue",
			question: "What was the revenue last quarter?",
			role:     policy.RoleFinanceOfficer,
			blocked:  false,
		},
		{
			name:     "field worker asks operational cost in farm context",
			question: "What did the fertilizer expenses per hectare look like?",
			role:     policy.RoleFieldWorker,
			blocked:  false,
		},
		{
			name:     "field worker asks plain budget question",
			question: "Show me the company budget breakdown",
			role:     policy.RoleFieldWorker,
			blocked:  true,
		},
		{
			name:     "admin asks anything",
			question: "Compare salary spend against crop revenue",
			role:     policy.RoleAdmin,
			blocked:  false,
		},
		{
			name:     "salesperson asks about performance reviews",
			question: "Show me the latest performance review summaries",
			role:     policy.RoleSalesPerson,
			blocked:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Preflight(tt.question, tt.role)
			if tt.blocked {
				assert.ErrorIs(t, err, policy.ErrViolation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
