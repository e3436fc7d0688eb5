package orchestrator

import (
	"fmt"
	"strings"

	"agri-assist-be/pkg/policy"
)

// Topic keyword sets used by the preflight guard. A question is blocked
// when it matches a topic its role is barred from, before any model or
// database work happens.
var topicKeywords = map[string][]string{
	"compensation": {
		"salary", "salaries", "wage", "wages", "payroll", "compensation",
		"bonus", "bonuses", "pay raise", "paycheck",
	},
	"finance": {
		"revenue", "profit", "margin", "budget", "expense", "expenses",
		"financial summary", "cash flow", "quarterly earnings",
	},
	"personnel": {
		"employee record", "employee records", "personnel file", "hiring",
		"termination", "performance review", "headcount",
	},
	"agriculture_ops": {
		"crop", "crops", "harvest", "soil", "irrigation", "fertilizer",
		"pesticide", "planting", "yield",
	},
}

// blockedTopics bars a role from asking about a topic at all. Admin is
// never listed; roles absent here rely on the grant checks downstream.
var blockedTopics = map[policy.Role][]string{
	policy.RoleFarmer:             {"compensation", "personnel", "finance"},
	policy.RoleFieldWorker:        {"compensation", "personnel", "finance"},
	policy.RoleAgricultureExpert:  {"compensation", "personnel"},
	policy.RoleSalesPerson:        {"compensation", "personnel"},
	policy.RoleSupplyChainManager: {"compensation", "personnel"},
	policy.RoleMarketAnalysis:     {"compensation", "personnel"},
	policy.RoleHR:                 {"agriculture_ops", "finance"},
	policy.RoleFinanceOfficer:     {"agriculture_ops"},
}

// agricultureContext marks words that place finance-sounding vocabulary
// in an operational farming context. "What did irrigation cost per
// hectare" is an agronomy question, not a finance one.
var agricultureContext = []string{
	"crop", "harvest", "soil", "irrigation", "fertilizer", "pesticide",
	"planting", "field", "hectare", "farm", "seed",
}

var agricultureRoles = map[policy.Role]bool{
	policy.RoleFarmer:            true,
	policy.RoleFieldWorker:       true,
	policy.RoleAgricultureExpert: true,
}

// Preflight checks whether the question's wording already places it
// outside the role's area. It returns an error wrapping
// policy.ErrViolation when blocked; admin passes everything.
func Preflight(question string, role policy.Role) error {
	if role.IsAdmin() {
		return nil
	}

	topics, ok := blockedTopics[role]
	if !ok {
		return nil
	}

	lowered := strings.ToLower(question)
	for _, topic := range topics {
		keyword := matchTopic(lowered, topic)
		if keyword == "" {
			continue
		}
		if topic == "finance" && agricultureRoles[role] && hasAgricultureContext(lowered) {
			continue
		}
		return fmt.Errorf("%w: role %s asked about %s (%q)", policy.ErrViolation, role, topic, keyword)
	}
	return nil
}

func matchTopic(lowered, topic string) string {
	for _, keyword := range topicKeywords[topic] {
		if strings.Contains(lowered, keyword) {
			return keyword
		}
	}
	return ""
}

func hasAgricultureContext(lowered string) bool {
	for _, word := range agricultureContext {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
