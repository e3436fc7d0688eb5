package policy

import "strings"

// Role is a named permission scope. The set of roles is fixed at process
// start; requests carrying anything else are denied at the policy boundary.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleAgricultureExpert  Role = "agriculture_expert"
	RoleFarmer             Role = "farmer"
	RoleFieldWorker        Role = "field_worker"
	RoleFinanceOfficer     Role = "finance_officer"
	RoleHR                 Role = "hr"
	RoleMarketAnalysis     Role = "market_analysis"
	RoleSalesPerson        Role = "sales_person"
	RoleSupplyChainManager Role = "supply_chain_manager"
)

// AllRoles lists every known role, admin first.
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleAgricultureExpert,
		RoleFarmer,
		RoleFieldWorker,
		RoleFinanceOfficer,
		RoleHR,
		RoleMarketAnalysis,
		RoleSalesPerson,
		RoleSupplyChainManager,
	}
}

// ParseRole normalizes a raw claim value ("Field Worker", "field_worker")
// into a known Role. The bool is false for anything outside the fixed set.
func ParseRole(raw string) (Role, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	// legacy claim spelling from the upload side
	if normalized == "salesperson" {
		normalized = "sales_person"
	}
	for _, r := range AllRoles() {
		if string(r) == normalized {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string {
	return string(r)
}

// IsAdmin reports whether the role bypasses document tag filtering.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
