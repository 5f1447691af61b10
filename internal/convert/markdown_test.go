package convert

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
)

func mdToRecords(t *testing.T, input string) [][]string {
	t.Helper()
	out, err := markdownToCSV(context.Background(), []byte(input), nil)
	if err != nil {
		t.Fatalf("markdownToCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	return records
}

func TestTableOnlyDocumentTakesTablePath(t *testing.T) {
	input := "A|B\n-|-\n1|2\n"
	records := mdToRecords(t, input)

	want := [][]string{{"A", "B"}, {"1", "2"}}
	if len(records) != len(want) {
		t.Fatalf("got %d records %v, want %d", len(records), records, len(want))
	}
	for i := range want {
		for j := range want[i] {
			if records[i][j] != want[i][j] {
				t.Errorf("record[%d][%d] = %q, want %q", i, j, records[i][j], want[i][j])
			}
		}
	}
}

func TestFirstTableWinsAndScanningStops(t *testing.T) {
	input := strings.Join([]string{
		"Some prose first.",
		"",
		"| X | Y |",
		"|---|---|",
		"| 1 | 2 |",
		"",
		"| Bigger | Table | Later |",
		"|--------|-------|-------|",
		"| a | b | c |",
		"| d | e | f |",
	}, "\n")
	records := mdToRecords(t, input)

	if len(records) != 2 {
		t.Fatalf("got %d records %v, want header + 1 data row from the first table", len(records), records)
	}
	if records[0][0] != "X" || records[1][1] != "2" {
		t.Errorf("records = %v, want the first table's content", records)
	}
}

func TestPipeTableWithEdgePipes(t *testing.T) {
	input := "| Name | Role |\n| --- | --- |\n| Ada | Engineer |\n"
	records := mdToRecords(t, input)

	if len(records) != 2 || records[1][0] != "Ada" || records[1][1] != "Engineer" {
		t.Errorf("records = %v, want [[Name Role] [Ada Engineer]]", records)
	}
}

func TestStructuredDocumentFlattens(t *testing.T) {
	input := strings.Join([]string{
		"# Title",
		"",
		"Some intro text.",
		"",
		"- first",
		"- second",
		"",
		"1. step one",
	}, "\n")
	records := mdToRecords(t, input)

	if records[0][0] != "Type" || records[0][1] != "Content" {
		t.Fatalf("header = %v, want [Type Content]", records[0])
	}

	want := [][]string{
		{"heading", "Title"},
		{"paragraph", "Some intro text."},
		{"list item", "first"},
		{"list item", "second"},
		{"numbered item", "step one"},
	}
	if len(records)-1 != len(want) {
		t.Fatalf("got %d data rows %v, want %d", len(records)-1, records[1:], len(want))
	}
	for i, row := range want {
		if records[i+1][0] != row[0] || records[i+1][1] != row[1] {
			t.Errorf("row %d = %v, want %v", i, records[i+1], row)
		}
	}
}

func TestPlainLinesFallBackToContentRows(t *testing.T) {
	input := "just a line\n\nanother line\n"
	records := mdToRecords(t, input)

	if records[0][0] != "Content" || len(records[0]) != 1 {
		t.Fatalf("header = %v, want [Content]", records[0])
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 content rows", len(records))
	}
	if records[1][0] != "just a line" || records[2][0] != "another line" {
		t.Errorf("rows = %v", records[1:])
	}
}

func TestMalformedTableFallsThrough(t *testing.T) {
	// Separator row has the wrong column count, so no well-formed table
	// exists; the heading forces the structural flatten instead.
	input := "# Doc\nA|B\n-|-|-\n1|2\n"
	records := mdToRecords(t, input)

	if records[0][0] != "Type" {
		t.Fatalf("header = %v, want the Type,Content flatten", records[0])
	}
}
