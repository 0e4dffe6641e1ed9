package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"RfpIntel/internal/domain"
)

const sheetName = "Cover Sheet"

var sectionTitles = map[string]string{
	"rfpIdentification":   "RFP Identification",
	"timeline":            "Timeline",
	"scope":               "Scope",
	"submission":          "Submission",
	"otherConsiderations": "Other Considerations",
}

// SectionTitle turns a cover sheet section key into a display heading.
func SectionTitle(name string) string {
	if title, ok := sectionTitles[name]; ok {
		return title
	}
	var b strings.Builder
	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// displayValue puts each labeled sub-value on its own line.
func displayValue(value string) string {
	fields := domain.SplitLabeled(value)
	if len(fields) <= 1 {
		return strings.TrimSpace(value)
	}
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Label == "" {
			lines = append(lines, f.Value)
			continue
		}
		lines = append(lines, f.Label+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}

// CoverSheetXLSX renders the cover sheet JSON as a workbook with Section,
// Field and Value columns.
func CoverSheetXLSX(raw string) ([]byte, error) {
	sheet, err := domain.ParseCoverSheet(raw)
	if err != nil {
		return nil, fmt.Errorf("parse cover sheet: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("wrap style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &[]any{"Section", "Field", "Value"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "C1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, section := range sheet.Sections {
		title := SectionTitle(section.Name)
		for _, field := range section.Fields {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheetName, cell, &[]any{title, field.Label, displayValue(field.Value)}); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	if row > 2 {
		last, err := excelize.CoordinatesToCellName(3, row-1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "A2", last, wrapStyle); err != nil {
			return nil, fmt.Errorf("style rows: %w", err)
		}
	}

	for col, width := range map[string]float64{"A": 22, "B": 36, "C": 90} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// CoverSheetMarkdown renders the cover sheet as headed markdown sections.
func CoverSheetMarkdown(raw string) (string, error) {
	sheet, err := domain.ParseCoverSheet(raw)
	if err != nil {
		return "", fmt.Errorf("parse cover sheet: %w", err)
	}

	var b strings.Builder
	for i, section := range sheet.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", SectionTitle(section.Name))
		for _, field := range section.Fields {
			value := displayValue(field.Value)
			if value == "" {
				value = "_Not specified_"
			}
			if strings.Contains(value, "\n") {
				fmt.Fprintf(&b, "**%s**\n", field.Label)
				for _, line := range strings.Split(value, "\n") {
					fmt.Fprintf(&b, "- %s\n", line)
				}
				continue
			}
			fmt.Fprintf(&b, "**%s**: %s\n", field.Label, value)
		}
	}
	return b.String(), nil
}
