package sqlquery

import (
	"strings"
	"testing"

	"agri-assist-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestFormatMarkdownTable(t *testing.T) {
	result := &store.SQLResult{
		Columns: []string{"crop", "yield_tons"},
		Rows: [][]string{
			{"wheat", "420.5"},
			{"maize", "310"},
		},
		RowCount: 2,
	}

	got := FormatMarkdownTable(result)
	lines := strings.Split(got, "\n")

	assert.Len(t, lines, 4)
	assert.Equal(t, "| crop  | yield_tons |", lines[0])
	assert.Equal(t, "|-------|------------|", lines[1])
	assert.Equal(t, "| wheat | 420.5      |", lines[2])
	assert.Equal(t, "| maize | 310        |", lines[3])
}

func TestFormatMarkdownTableEmpty(t *testing.T) {
	assert.Equal(t, "", FormatMarkdownTable(nil))
	assert.Equal(t, "", FormatMarkdownTable(&store.SQLResult{}))
}

func TestFormatMarkdownTableHeaderOnly(t *testing.T) {
	result := &store.SQLResult{
		Columns: []string{"commodity"},
	}
	got := FormatMarkdownTable(result)
	lines := strings.Split(got, "\n")

	assert.Len(t, lines, 2)
	assert.Equal(t, "| commodity |", lines[0])
}

func TestCleanStatement(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "fenced",
			raw:  "```sql\nSELECT * FROM crop_yields\n```",
			want: "SELECT * FROM crop_yields",
		},
		{
			name: "plain fence",
			raw:  "```\nSELECT 1 FROM shipments\n```",
			want: "SELECT 1 FROM shipments",
		},
		{
			name: "sql prefix",
			raw:  "SQL: SELECT commodity FROM market_prices",
			want: "SELECT commodity FROM market_prices",
		},
		{
			name: "already clean",
			raw:  "SELECT quarter FROM financial_summary",
			want: "SELECT quarter FROM financial_summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanStatement(tt.raw))
		})
	}
}
