package table

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Source names the format a table was recovered from.
type Source string

const (
	SourceHTML     Source = "html"
	SourceMarkdown Source = "markdown"
	SourceCSV      Source = "csv"
)

// Table is a compliance matrix recovered from free-form model output or a
// saved edit. Every row has len(Header) cells.
type Table struct {
	Source Source     `json:"source"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

const requirementHeader = "requirement id"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ParseComplianceTable recovers the main table from text. HTML tables win
// over markdown pipe tables, which win over CSV. CSV must be rectangular
// with short header labels. ok is false when text
// holds no usable table and should be shown raw.
func ParseComplianceTable(text string) (Table, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Table{}, false
	}

	if strings.Contains(strings.ToLower(text), "<table") {
		if t, ok := fromHTML(text); ok {
			t.Source = SourceHTML
			return t, true
		}
	}

	if looksLikeMarkdownTable(text) {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(text), &buf); err == nil {
			if t, ok := fromHTML(buf.String()); ok {
				t.Source = SourceMarkdown
				return t, true
			}
		}
	}

	if t, ok := fromCSV(text); ok {
		t.Source = SourceCSV
		return t, true
	}
	return Table{}, false
}

func fromHTML(html string) (Table, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Table{}, false
	}

	var best Table
	found := false
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		t, ok := readTable(sel)
		if !ok {
			return true
		}
		if hasRequirementHeader(t.Header) {
			best, found = t, true
			return false
		}
		if !found || len(t.Rows) > len(best.Rows) {
			best, found = t, true
		}
		return true
	})
	return best, found
}

func readTable(sel *goquery.Selection) (Table, bool) {
	var grid [][]string
	headerRow := -1
	sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if headerRow < 0 && tr.Find("th").Length() > 0 {
			headerRow = len(grid)
		}
		grid = append(grid, cells)
	})
	if headerRow < 0 {
		headerRow = 0
	}
	if len(grid) <= headerRow+1 {
		return Table{}, false
	}
	return normalize(grid[headerRow], grid[headerRow+1:])
}

// fromCSV accepts only rectangular CSV under a label-like header, so prose
// with stray commas stays raw.
func fromCSV(text string) (Table, bool) {
	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil || len(records) < 2 || len(records[0]) < 2 {
		return Table{}, false
	}
	for i := range records {
		for j := range records[i] {
			records[i][j] = cellText(records[i][j])
		}
	}
	for _, h := range records[0] {
		if !isLabel(h) {
			return Table{}, false
		}
	}
	return normalize(records[0], records[1:])
}

const (
	maxLabelRunes = 40
	maxLabelWords = 4
)

func isLabel(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxLabelRunes || len(strings.Fields(s)) > maxLabelWords {
		return false
	}
	return !strings.ContainsAny(s[len(s)-1:], ".!?")
}

// normalize pads or trims rows to the header width and drops blank rows.
func normalize(header []string, rows [][]string) (Table, bool) {
	if len(header) < 2 {
		return Table{}, false
	}
	out := Table{Header: header, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		fixed := make([]string, len(header))
		copy(fixed, row)
		out.Rows = append(out.Rows, fixed)
	}
	return out, len(out.Rows) > 0
}

func looksLikeMarkdownTable(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "|") && strings.Contains(line, "---") {
			return true
		}
	}
	return false
}

func hasRequirementHeader(header []string) bool {
	for _, h := range header {
		if strings.EqualFold(h, requirementHeader) {
			return true
		}
	}
	return false
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func cellText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
