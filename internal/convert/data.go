package convert

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
)

// newDataConverter picks the tabular/structural reformatter for a data
// preset. All data conversions are pure in-memory transforms.
func newDataConverter(p registry.Preset) byteConverter {
	if fn, ok := dataConversions[p.ID]; ok {
		return fn
	}
	return convertFunc(func(context.Context, []byte, *models.AdvancedOptions) ([]byte, error) {
		return nil, fmt.Errorf("no data conversion implemented for %s", p.ID)
	})
}

var dataConversions = map[string]convertFunc{
	"csv-to-json": csvToJSON,
	"json-to-csv": jsonToCSV,
	"csv-to-xlsx": csvToXLSX,
	"xlsx-to-csv": xlsxToCSV,
	"json-to-yaml": jsonToYAML,
	"yaml-to-json": yamlToJSON,
	"csv-to-tsv":  reDelimit(',', '\t'),
	"tsv-to-csv":  reDelimit('\t', ','),
	"json-to-xml": jsonToXML,
	"md-to-csv":   markdownToCSV,
}

func readDelimited(input []byte, comma rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(input))
	r.Comma = comma
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, validationf("input is not well-formed delimited data: %v", err)
	}
	if len(records) == 0 {
		return nil, validationf("input contains no rows")
	}
	return records, nil
}

func writeDelimited(records [][]string, comma rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write delimited output: %w", err)
	}
	return buf.Bytes(), nil
}

func reDelimit(from, to rune) convertFunc {
	return func(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
		records, err := readDelimited(input, from)
		if err != nil {
			return nil, err
		}
		return writeDelimited(records, to)
	}
}

func csvToJSON(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
	records, err := readDelimited(input, ',')
	if err != nil {
		return nil, err
	}
	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return json.Marshal(rows)
}

// decodeJSONRows accepts a JSON object (one row) or an array of objects.
// Anything else is a shape the tabular converters cannot represent, and the
// error says exactly that instead of a generic parse failure.
func decodeJSONRows(input []byte) ([]map[string]interface{}, error) {
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, validationf("input is not valid JSON: %v", err)
	}

	switch v := value.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	case []interface{}:
		rows := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, validationf("expected a JSON object or an array of objects, found a non-object array element")
			}
			rows = append(rows, obj)
		}
		return rows, nil
	default:
		return nil, validationf("expected a JSON object or an array of objects")
	}
}

func jsonToCSV(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
	rows, err := decodeJSONRows(input)
	if err != nil {
		return nil, err
	}

	keySet := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			keySet[k] = true
		}
	}
	headers := make([]string, 0, len(keySet))
	for k := range keySet {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	records := [][]string{headers}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = stringifyCell(row[h])
		}
		records = append(records, record)
	}
	return writeDelimited(records, ',')
}

func stringifyCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}

func csvToXLSX(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
	records, err := readDelimited(input, ',')
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, record := range records {
		cells := make([]interface{}, len(record))
		for j, field := range record {
			cells[j] = field
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("build sheet row: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("build sheet row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxToCSV(_ context.Context, input []byte, opts *models.AdvancedOptions) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(input))
	if err != nil {
		return nil, validationf("input is not a readable xlsx workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if opts != nil && opts.SheetName != "" {
		sheet = opts.SheetName
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, validationf("workbook has no sheet named %q", sheet)
	}
	return writeDelimited(rows, ',')
}

func jsonToYAML(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
	var value interface{}
	if err := json.Unmarshal(input, &value); err != nil {
		return nil, validationf("input is not valid JSON: %v", err)
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return out, nil
}

func yamlToJSON(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
	var value interface{}
	if err := yaml.Unmarshal(input, &value); err != nil {
		return nil, validationf("input is not valid YAML: %v", err)
	}
	out, err := json.Marshal(normalizeYAML(value))
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

// normalizeYAML rewrites the occasional interface-keyed map yaml.v3 can
// produce into something encoding/json accepts.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return m
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalizeYAML(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeYAML(item)
		}
		return val
	default:
		return v
	}
}

func jsonToXML(_ context.Context, input []byte, _ *models.AdvancedOptions) ([]byte, error) {
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, validationf("input is not valid JSON: %v", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	writeXMLElement(&buf, "root", value, 0)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeXMLElement(buf *bytes.Buffer, name string, v interface{}, depth int) {
	name = xmlElementName(name)
	indent := strings.Repeat("  ", depth)

	switch val := v.(type) {
	case map[string]interface{}:
		fmt.Fprintf(buf, "%s<%s>\n", indent, name)
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeXMLElement(buf, k, val[k], depth+1)
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, name)
	case []interface{}:
		fmt.Fprintf(buf, "%s<%s>\n", indent, name)
		for _, item := range val {
			writeXMLElement(buf, "item", item, depth+1)
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, name)
	default:
		fmt.Fprintf(buf, "%s<%s>", indent, name)
		_ = xml.EscapeText(buf, []byte(stringifyCell(v)))
		fmt.Fprintf(buf, "</%s>\n", name)
	}
}

// xmlElementName coerces arbitrary JSON keys into valid XML names.
func xmlElementName(key string) string {
	if key == "" {
		return "field"
	}
	var b strings.Builder
	for i, r := range key {
		valid := r == '_' || r == '-' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9' && i > 0)
		if valid {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
