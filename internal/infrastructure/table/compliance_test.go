package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComplianceTableHTMLPrefersRequirementTable(t *testing.T) {
	t.Parallel()

	text := `<h2>Timeline</h2>
<table>
  <tr><th>Event</th><th>Date</th></tr>
  <tr><td>Released</td><td>2025-03-01</td></tr>
  <tr><td>Questions due</td><td>2025-03-15</td></tr>
  <tr><td>Submissions due</td><td>2025-04-01</td></tr>
</table>
<h2>Compliance Matrix</h2>
<table>
  <thead><tr><th>Requirement ID</th><th>Requirement Description</th><th>Page Ref</th></tr></thead>
  <tbody>
    <tr><td>REQ-001</td><td>Vendor must provide
        SOC 2 certification.</td><td>Page 12</td></tr>
    <tr><td>REQ-002</td><td>Proposal must not exceed 50 pages.</td></tr>
  </tbody>
</table>`

	tbl, ok := ParseComplianceTable(text)
	require.True(t, ok)
	assert.Equal(t, SourceHTML, tbl.Source)
	assert.Equal(t, []string{"Requirement ID", "Requirement Description", "Page Ref"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Vendor must provide SOC 2 certification.", tbl.Rows[0][1])
	assert.Equal(t, []string{"REQ-002", "Proposal must not exceed 50 pages.", ""}, tbl.Rows[1])
}

func TestParseComplianceTableMarkdown(t *testing.T) {
	t.Parallel()

	text := "3. COMPLIANCE MATRIX\n\n" +
		"| Requirement ID | Requirement Description | Requirement Type |\n" +
		"|---|---|---|\n" +
		"| REQ-001 | Vendor must provide cybersecurity certification (e.g., SOC 2). | Mandatory |\n" +
		"| REQ-002 | Proposal must not exceed 50 pages. | Mandatory |\n"

	tbl, ok := ParseComplianceTable(text)
	require.True(t, ok)
	assert.Equal(t, SourceMarkdown, tbl.Source)
	assert.Equal(t, "Requirement Type", tbl.Header[2])
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "REQ-001", tbl.Rows[0][0])
}

func TestParseComplianceTableCSV(t *testing.T) {
	t.Parallel()

	text := "Requirement ID,Requirement Description,Notes\n" +
		"REQ-001,\"Provide insurance, $1M\",\n" +
		",,\n" +
		"REQ-002,Submit by email,Extra\n"

	tbl, ok := ParseComplianceTable(text)
	require.True(t, ok)
	assert.Equal(t, SourceCSV, tbl.Source)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Provide insurance, $1M", tbl.Rows[0][1])
	assert.Equal(t, []string{"REQ-002", "Submit by email", "Extra"}, tbl.Rows[1])
}

func TestParseComplianceTableRejectsProse(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"<p>The document contains no explicit requirements.</p>",
		"Just a sentence without any structure",
		"<table><tr><th>Only header</th><th>Row</th></tr></table>",
		"Unable to build the matrix, the document has no explicit requirements.\nPlease review sections 2, 3 and 4 manually.",
		"Note, see below\nThe scope section lists deliverables only",
		"Requirement ID,Notes\nREQ-001,ok,extra",
	} {
		_, ok := ParseComplianceTable(text)
		assert.False(t, ok, text)
	}
}
