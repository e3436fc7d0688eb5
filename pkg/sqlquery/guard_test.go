package sqlquery

import (
	"testing"

	"agri-assist-be/pkg/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	pol, err := policy.New(policy.DefaultGrants())
	require.NoError(t, err)
	return pol
}

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{
			name: "plain select",
			sql:  "SELECT crop, yield_tons FROM crop_yields WHERE region = 'north'",
		},
		{
			name: "select with trailing semicolon",
			sql:  "SELECT * FROM market_prices;",
		},
		{
			name:    "update rejected",
			sql:     "UPDATE crop_yields SET yield_tons = 0",
			wantErr: true,
		},
		{
			name:    "delete hidden behind select",
			sql:     "SELECT 1; DELETE FROM crop_yields",
			wantErr: true,
		},
		{
			name:    "drop rejected",
			sql:     "SELECT * FROM crop_yields; DROP TABLE crop_yields",
			wantErr: true,
		},
		{
			name: "keyword as substring is fine",
			sql:  "SELECT updated_at, created_at FROM crop_yields",
		},
		{
			name:    "empty statement",
			sql:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReadOnly(tt.sql)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafeQuery)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractTables(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "single table",
			sql:  "SELECT * FROM crop_yields",
			want: []string{"crop_yields"},
		},
		{
			name: "join",
			sql:  "SELECT * FROM sales_orders s JOIN market_prices m ON s.commodity = m.commodity",
			want: []string{"sales_orders", "market_prices"},
		},
		{
			name: "duplicate references deduped",
			sql:  "SELECT * FROM shipments JOIN shipments ON true",
			want: []string{"shipments"},
		},
		{
			name: "no tables",
			sql:  "SELECT 1",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTables(tt.sql))
		})
	}
}

func TestCheckPolicyTableAccess(t *testing.T) {
	pol := guardPolicy(t)

	err := CheckPolicy("SELECT crop, yield_tons FROM crop_yields", policy.RoleFarmer, pol)
	assert.NoError(t, err)

	err = CheckPolicy("SELECT salary FROM employee_records", policy.RoleFarmer, pol)
	assert.ErrorIs(t, err, policy.ErrViolation)
}

func TestCheckPolicyColumnOutsideGrant(t *testing.T) {
	pol := guardPolicy(t)

	// field_worker may query crop_yields but has no area_hectares column.
	err := CheckPolicy("SELECT crop, area_hectares FROM crop_yields", policy.RoleFieldWorker, pol)
	assert.ErrorIs(t, err, policy.ErrViolation)

	// The same statement is fine for a farmer.
	err = CheckPolicy("SELECT crop, area_hectares FROM crop_yields", policy.RoleFarmer, pol)
	assert.NoError(t, err)
}

func TestCheckPolicyNarrowedSharedTable(t *testing.T) {
	pol := guardPolicy(t)

	// sales_person sees market_prices without the demand model column.
	err := CheckPolicy("SELECT commodity, demand_index FROM market_prices", policy.RoleSalesPerson, pol)
	assert.ErrorIs(t, err, policy.ErrViolation)

	err = CheckPolicy("SELECT commodity, demand_index FROM market_prices", policy.RoleMarketAnalysis, pol)
	assert.NoError(t, err)
}

func TestCheckPolicyAdminSeesEverything(t *testing.T) {
	pol := guardPolicy(t)

	err := CheckPolicy("SELECT full_name, salary FROM employee_records", policy.RoleAdmin, pol)
	assert.NoError(t, err)
}

func TestCheckPolicyNoTableReference(t *testing.T) {
	pol := guardPolicy(t)

	err := CheckPolicy("SELECT 1", policy.RoleAdmin, pol)
	assert.ErrorIs(t, err, ErrUnsafeQuery)
}

func TestCheckPolicyWildcardSelect(t *testing.T) {
	pol := guardPolicy(t)

	// field_worker's crop_yields grant omits area_hectares, so a wildcard
	// would expand past it.
	err := CheckPolicy("SELECT * FROM crop_yields", policy.RoleFieldWorker, pol)
	assert.ErrorIs(t, err, policy.ErrViolation)

	err = CheckPolicy("SELECT crop_yields.* FROM crop_yields", policy.RoleFieldWorker, pol)
	assert.ErrorIs(t, err, policy.ErrViolation)

	// A farmer holds the full table, so the wildcard expands to nothing
	// outside the grant.
	err = CheckPolicy("SELECT * FROM crop_yields", policy.RoleFarmer, pol)
	assert.NoError(t, err)

	// count(*) yields a count, not column values.
	err = CheckPolicy("SELECT count(*) FROM crop_yields", policy.RoleFieldWorker, pol)
	assert.NoError(t, err)

	// Arithmetic is not a wildcard.
	err = CheckPolicy("SELECT yield_tons * 2 FROM crop_yields", policy.RoleFieldWorker, pol)
	assert.NoError(t, err)
}

func TestCheckResultColumns(t *testing.T) {
	pol := guardPolicy(t)
	statement := "SELECT crop, season FROM crop_yields"

	// A real table column outside the grant in the executed output fails
	// closed, whatever the statement claimed.
	err := CheckResultColumns([]string{"crop", "season", "area_hectares"}, statement, policy.RoleFieldWorker, pol)
	assert.ErrorIs(t, err, policy.ErrViolation)

	err = CheckResultColumns([]string{"crop", "season"}, statement, policy.RoleFieldWorker, pol)
	assert.NoError(t, err)

	// Aggregate labels and aliases are not table columns.
	err = CheckResultColumns([]string{"crop", "total_yield"}, statement, policy.RoleFieldWorker, pol)
	assert.NoError(t, err)
}
