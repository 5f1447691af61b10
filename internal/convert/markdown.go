package convert

import (
	"context"
	"regexp"
	"strings"

	"github.com/formaflow/converter_api/internal/models"
)

var (
	mdSeparatorRe = regexp.MustCompile(`^\s*\|?\s*:?-{1,}:?\s*(\|\s*:?-{1,}:?\s*)*\|?\s*$`)
	mdHeadingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	mdBulletRe    = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	mdNumberedRe  = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
)

// markdownToCSV converts Markdown to CSV with a fixed precedence: the first
// well-formed pipe table wins and scanning stops there; failing that, any
// document with headings or list items is flattened into a Type,Content
// table; failing that, each non-blank line becomes a Content row. A richer
// table later in the document never overrides the first one.
func markdownToCSV(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
	lines := strings.Split(strings.ReplaceAll(string(input), "\r\n", "\n"), "\n")

	if records, ok := firstPipeTable(lines); ok {
		return writeDelimited(records, ',')
	}
	if records, ok := flattenStructure(lines); ok {
		return writeDelimited(records, ',')
	}
	return rawLines(lines)
}

// firstPipeTable scans for a header row, a separator row, and at least one
// data row with a matching column count.
func firstPipeTable(lines []string) ([][]string, bool) {
	for i := 0; i+2 < len(lines); i++ {
		if !strings.Contains(lines[i], "|") {
			continue
		}
		if !mdSeparatorRe.MatchString(lines[i+1]) || !strings.Contains(lines[i+1], "|") {
			continue
		}
		header := splitTableRow(lines[i])
		if len(header) == 0 || len(splitTableRow(lines[i+1])) != len(header) {
			continue
		}

		records := [][]string{header}
		for j := i + 2; j < len(lines); j++ {
			row := splitTableRow(lines[j])
			if len(row) != len(header) {
				break
			}
			records = append(records, row)
		}
		if len(records) < 2 {
			continue
		}
		return records, true
	}
	return nil, false
}

func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "|") {
		return nil
	}
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// flattenStructure applies only when the document has some Markdown
// structure to speak of; a run of plain lines falls through to rawLines.
func flattenStructure(lines []string) ([][]string, bool) {
	structured := false
	records := [][]string{{"Type", "Content"}}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case mdHeadingRe.MatchString(trimmed):
			m := mdHeadingRe.FindStringSubmatch(trimmed)
			records = append(records, []string{"heading", strings.TrimSpace(m[2])})
			structured = true
		case mdBulletRe.MatchString(trimmed):
			m := mdBulletRe.FindStringSubmatch(trimmed)
			records = append(records, []string{"list item", m[1]})
			structured = true
		case mdNumberedRe.MatchString(trimmed):
			m := mdNumberedRe.FindStringSubmatch(trimmed)
			records = append(records, []string{"numbered item", m[1]})
			structured = true
		default:
			records = append(records, []string{"paragraph", trimmed})
		}
	}

	if !structured || len(records) < 2 {
		return nil, false
	}
	return records, true
}

func rawLines(lines []string) ([]byte, error) {
	records := [][]string{{"Content"}}
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			records = append(records, []string{trimmed})
		}
	}
	return writeDelimited(records, ',')
}
