package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// policyDocument is the on-disk shape of a policy file.
type policyDocument struct {
	Roles map[string]RoleGrant `yaml:"roles"`
}

// LoadFile reads a role policy from a YAML document.
func LoadFile(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}

	var doc policyDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("policy: parse %s: %w", path, err)
	}

	grants := make(map[Role]RoleGrant, len(doc.Roles))
	for rawRole, grant := range doc.Roles {
		role, ok := ParseRole(rawRole)
		if !ok {
			return nil, fmt.Errorf("policy: %s declares unrecognized role %q", path, rawRole)
		}
		grants[role] = grant
	}
	return New(grants)
}

// Load returns the policy from the given file, or the built-in default
// grants when no path is configured.
func Load(path string) (*Policy, error) {
	if path == "" {
		return New(DefaultGrants())
	}
	return LoadFile(path)
}

// DefaultGrants is the organization's stock permission map. Each role sees
// its own document category plus the shared agronomy corpus where the role
// works with crops directly.
func DefaultGrants() map[Role]RoleGrant {
	return map[Role]RoleGrant{
		RoleAgricultureExpert: {
			DocumentTags: []string{"agronomy", "agriculture_expert"},
			Tables: map[string]TableGrant{
				"crop_yields": {Columns: []string{"crop", "season", "region", "yield_tons", "area_hectares"}},
			},
		},
		RoleFarmer: {
			DocumentTags: []string{"agronomy", "farmer"},
			Tables: map[string]TableGrant{
				"crop_yields": {Columns: []string{"crop", "season", "region", "yield_tons", "area_hectares"}},
			},
		},
		RoleFieldWorker: {
			DocumentTags: []string{"agronomy", "field_worker"},
			Tables: map[string]TableGrant{
				"crop_yields": {Columns: []string{"crop", "season", "region", "yield_tons"}},
			},
		},
		RoleFinanceOfficer: {
			DocumentTags: []string{"finance"},
			Tables: map[string]TableGrant{
				"financial_summary": {Columns: []string{"quarter", "revenue", "expenses", "profit_margin", "budget_allocation"}},
			},
		},
		RoleHR: {
			DocumentTags: []string{"hr"},
			Tables: map[string]TableGrant{
				"employee_records": {Columns: []string{"employee_id", "full_name", "designation", "department", "salary", "hire_date"}},
			},
		},
		RoleMarketAnalysis: {
			DocumentTags: []string{"market_analysis"},
			Tables: map[string]TableGrant{
				"market_prices": {Columns: []string{"commodity", "region", "price_per_ton", "demand_index", "recorded_at"}},
			},
		},
		RoleSalesPerson: {
			DocumentTags: []string{"sales"},
			Tables: map[string]TableGrant{
				"sales_orders": {Columns: []string{"order_id", "customer", "commodity", "quantity_tons", "unit_price", "order_date"}},
				// salespeople see prices but not the demand model behind them
				"market_prices": {Columns: []string{"commodity", "region", "price_per_ton"}},
			},
		},
		RoleSupplyChainManager: {
			DocumentTags: []string{"supply_chain"},
			Tables: map[string]TableGrant{
				"shipments": {Columns: []string{"shipment_id", "origin", "destination", "carrier", "freight_cost", "status"}},
			},
		},
	}
}
