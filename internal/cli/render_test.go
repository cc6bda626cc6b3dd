package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/applist/internal/cli/pagination"
	"github.com/rshade/applist/internal/config"
	"github.com/rshade/applist/internal/display"
)

func sampleRows() []display.Row {
	return []display.Row{
		{
			ID: "1", Company: "Tech Corp", Name: "John Doe", Email: "john.doe@techcorp.com",
			LoanAmount: "£50,000", ApplicationDate: "15-01-2024", ExpiryDate: "15-12-2024",
		},
		{
			ID: "2", Company: "Innovation Ltd", Name: "Jane Smith", Email: "jane.smith@innovation.com",
			LoanAmount: "£75,000", ApplicationDate: "20-02-2024", ExpiryDate: "20-01-2025",
		},
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	summary := pagination.LoadSummary{PageSize: 5, Triggers: 1, PagesLoaded: 1, RecordsLoaded: 2, NextPage: 1}

	require.NoError(t, render(&buf, config.FormatTable, sampleRows(), summary))

	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "Company"))
	assert.Contains(t, lines[0], "Loan Amount")
	assert.True(t, strings.HasPrefix(lines[1], "-------"))
	assert.Contains(t, lines[2], "Tech Corp")
	assert.Contains(t, lines[2], "£50,000")
	assert.Contains(t, lines[3], "Innovation Ltd")
	assert.Contains(t, buf.String(), "2 applications from 1 of 1 pages; next page 1\n")
}

func TestRenderTable_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, render(&buf, config.FormatTable, nil, pagination.LoadSummary{Triggers: 1, PagesLoaded: 1, NextPage: 1}))

	assert.Contains(t, buf.String(), "No applications loaded.")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, render(&buf, config.FormatJSON, sampleRows(), pagination.LoadSummary{RecordsLoaded: 2}))

	out := buf.String()
	assert.Contains(t, out, `"applications": [`)
	assert.Contains(t, out, `"loan_amount": "£50,000"`)
	assert.Contains(t, out, `"application_date": "15-01-2024"`)
	assert.Contains(t, out, `"records_loaded": 2`)
}

func TestRenderJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, render(&buf, config.FormatJSON, []display.Row{}, pagination.LoadSummary{}))

	assert.Contains(t, buf.String(), `"applications": []`)
}

func TestRenderNDJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, render(&buf, config.FormatNDJSON, sampleRows(), pagination.LoadSummary{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"company":"Tech Corp"`)
	assert.Contains(t, lines[1], `"company":"Innovation Ltd"`)
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "ndjson"} {
		assert.NoError(t, validateFormat(f))
	}
	assert.Error(t, validateFormat("yaml"))
}
