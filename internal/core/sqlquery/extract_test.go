package sqlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGeneratedResponse(t *testing.T) {
	tests := []struct {
		name            string
		response        string
		wantStatement   string
		wantExplanation string
	}{
		{
			name:            "well formed",
			response:        "SQL_QUERY: SELECT * FROM sheet_cells LIMIT 5\nEXPLANATION: Lists five cells.",
			wantStatement:   "SELECT * FROM sheet_cells LIMIT 5",
			wantExplanation: "Lists five cells.",
		},
		{
			name:            "fenced sql",
			response:        "SQL_QUERY:\n```sql\nSELECT * FROM sheet_cells LIMIT 5\n```\nEXPLANATION: Fenced output.",
			wantStatement:   "SELECT * FROM sheet_cells LIMIT 5",
			wantExplanation: "Fenced output.",
		},
		{
			name:            "lowercase labels",
			response:        "sql_query: SELECT 1 LIMIT 1\nexplanation: trivial",
			wantStatement:   "SELECT 1 LIMIT 1",
			wantExplanation: "trivial",
		},
		{
			name:            "missing explanation",
			response:        "SQL_QUERY: SELECT * FROM sheet_cells LIMIT 5",
			wantStatement:   "SELECT * FROM sheet_cells LIMIT 5",
			wantExplanation: defaultExplanation,
		},
		{
			name:            "no labels at all",
			response:        "Sorry, I cannot generate SQL for that.",
			wantStatement:   "",
			wantExplanation: defaultExplanation,
		},
		{
			name:            "multiline statement",
			response:        "SQL_QUERY: SELECT column_name,\n  AVG(numerical_value)\nFROM sheet_cells\nGROUP BY column_name\nLIMIT 10\nEXPLANATION: Aggregates per column.",
			wantStatement:   "SELECT column_name,\n  AVG(numerical_value)\nFROM sheet_cells\nGROUP BY column_name\nLIMIT 10",
			wantExplanation: "Aggregates per column.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statement, explanation := parseGeneratedResponse(tt.response)
			assert.Equal(t, tt.wantStatement, statement)
			assert.Equal(t, tt.wantExplanation, explanation)
		})
	}
}

func TestValidateStatement(t *testing.T) {
	assert.NoError(t, validateStatement("SELECT * FROM sheet_cells LIMIT 10"))
	assert.ErrorIs(t, validateStatement("DROP TABLE sheet_cells"), ErrUnsafeStatement)
	assert.ErrorIs(t, validateStatement("select * from x; drop table y"), ErrUnsafeStatement)
	assert.ErrorIs(t, validateStatement("TRUNCATE sheet_cells"), ErrUnsafeStatement)
	assert.ErrorIs(t, validateStatement("INSERT INTO sheet_cells VALUES (1)"), ErrUnsafeStatement)
}

func TestFormatRows(t *testing.T) {
	rows := []Row{
		{"column_name": "Performance %", "numerical_value": float64(0.85)},
		{"column_name": "Actual Sales", "numerical_value": float64(150000)},
		{"column_name": "Quota", "numerical_value": float64(1234.5)},
		{"column_name": "Region", "text_value": "North"},
	}

	formatted := formatRows(rows)

	assert.Equal(t, "85.00%", formatted[0]["formatted_value"])
	assert.Equal(t, "$150,000.00", formatted[1]["formatted_value"])
	assert.Equal(t, "$1,234.50", formatted[2]["formatted_value"])
	_, ok := formatted[3]["formatted_value"]
	assert.False(t, ok)

	// 数値そのものは変更されない
	assert.Equal(t, float64(0.85), formatted[0]["numerical_value"])
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$0.00", formatCurrency(0))
	assert.Equal(t, "$999.99", formatCurrency(999.99))
	assert.Equal(t, "$1,000.00", formatCurrency(1000))
	assert.Equal(t, "$12,345,678.90", formatCurrency(12345678.9))
	assert.Equal(t, "-$500.00", formatCurrency(-500))
}
