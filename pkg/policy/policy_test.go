package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicy(t *testing.T) *Policy {
	t.Helper()
	pol, err := New(DefaultGrants())
	require.NoError(t, err)
	return pol
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  Role
		valid bool
	}{
		{name: "exact", raw: "farmer", want: RoleFarmer, valid: true},
		{name: "uppercase", raw: "ADMIN", want: RoleAdmin, valid: true},
		{name: "spaces to underscores", raw: "field worker", want: RoleFieldWorker, valid: true},
		{name: "legacy salesperson", raw: "salesperson", want: RoleSalesPerson, valid: true},
		{name: "whitespace trimmed", raw: "  hr  ", want: RoleHR, valid: true},
		{name: "unknown", raw: "intern", valid: false},
		{name: "empty", raw: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRole(tt.raw)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVisibleTags(t *testing.T) {
	pol := defaultPolicy(t)

	tags, err := pol.VisibleTags(RoleFarmer)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"agronomy", "farmer"}, tags)

	_, err = pol.VisibleTags(Role("contractor"))
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestAdminGrantIsUnionOfAllRoles(t *testing.T) {
	pol := defaultPolicy(t)

	adminTags, err := pol.VisibleTags(RoleAdmin)
	require.NoError(t, err)

	for _, role := range AllRoles() {
		if role == RoleAdmin {
			continue
		}
		tags, err := pol.VisibleTags(role)
		require.NoError(t, err)
		assert.Subset(t, adminTags, tags, "admin must see everything %s sees", role)
	}

	for _, table := range pol.KnownTables() {
		ok, err := pol.CanAccessTable(RoleAdmin, table)
		require.NoError(t, err)
		assert.True(t, ok, "admin must access table %s", table)
	}
}

func TestCanAccessTable(t *testing.T) {
	pol := defaultPolicy(t)

	tests := []struct {
		name  string
		role  Role
		table string
		want  bool
	}{
		{name: "farmer reads yields", role: RoleFarmer, table: "crop_yields", want: true},
		{name: "farmer blocked from financials", role: RoleFarmer, table: "financial_summary", want: false},
		{name: "hr reads employees", role: RoleHR, table: "employee_records", want: true},
		{name: "hr blocked from yields", role: RoleHR, table: "crop_yields", want: false},
		{name: "sales reads both order tables", role: RoleSalesPerson, table: "market_prices", want: true},
		{name: "nonexistent table", role: RoleFarmer, table: "secrets", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pol.CanAccessTable(tt.role, tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowedColumnsEmptyForUngrantedTable(t *testing.T) {
	pol := defaultPolicy(t)

	// Known role, table outside its grant: empty set, not an error.
	cols, err := pol.AllowedColumns(RoleFarmer, "employee_records")
	require.NoError(t, err)
	assert.Empty(t, cols)

	_, err = pol.AllowedColumns(Role("contractor"), "crop_yields")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestColumnLevelGrantNarrowerThanUniverse(t *testing.T) {
	pol := defaultPolicy(t)

	// sales_person sees a narrower market_prices view than the universe.
	cols, err := pol.AllowedColumns(RoleSalesPerson, "market_prices")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"commodity", "region", "price_per_ton"}, cols)

	universe := pol.TableUniverse("market_prices")
	assert.Contains(t, universe, "demand_index")
	assert.NotContains(t, cols, "demand_index")
}

func TestVisibleSchemaIsSortedAndFiltered(t *testing.T) {
	pol := defaultPolicy(t)

	schemas, err := pol.VisibleSchema(RoleSalesPerson)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, "market_prices", schemas[0].Name)
	assert.Equal(t, "sales_orders", schemas[1].Name)
}

func TestNewRejectsUnknownRoleInGrants(t *testing.T) {
	_, err := New(map[Role]RoleGrant{
		Role("wizard"): {DocumentTags: []string{"magic"}},
	})
	assert.Error(t, err)
}
