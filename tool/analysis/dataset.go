package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/agentnet/core"
)

// Formats of the data payload.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// dataset is a parsed payload: named fields and one row per record.
type dataset struct {
	format string
	fields []string
	rows   []map[string]any
}

// inferFormat picks json for payloads that look like a JSON object or array.
func inferFormat(data string) string {
	trimmed := strings.TrimSpace(data)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}
	return FormatCSV
}

func invalidData(format string, err error) error {
	return &core.SchemaValidationError{
		Subject: "tool " + ID + " input",
		Fields: []core.FieldError{{
			Path:    "data",
			Message: fmt.Sprintf("not valid %s: %v", strings.ToUpper(format), err),
		}},
	}
}

func parse(data, format string) (*dataset, error) {
	if format == "" {
		format = inferFormat(data)
	}

	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatCSV:
		return parseCSV(data)
	default:
		return nil, invalidData(format, fmt.Errorf("unsupported format"))
	}
}

func parseJSON(data string) (*dataset, error) {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, invalidData(FormatJSON, err)
	}

	ds := &dataset{format: FormatJSON}

	switch t := v.(type) {
	case []any:
		seen := map[string]struct{}{}
		for _, item := range t {
			row, ok := item.(map[string]any)
			if !ok {
				row = map[string]any{"value": item}
			}
			for _, k := range slices.Sorted(maps.Keys(row)) {
				if _, dup := seen[k]; !dup {
					seen[k] = struct{}{}
					ds.fields = append(ds.fields, k)
				}
			}
			ds.rows = append(ds.rows, row)
		}
	case map[string]any:
		ds.fields = slices.Sorted(maps.Keys(t))
		ds.rows = []map[string]any{t}
	default:
		return nil, invalidData(FormatJSON, fmt.Errorf("expected an object or an array, got %T", v))
	}

	return ds, nil
}

func parseCSV(data string) (*dataset, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(data)))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, invalidData(FormatCSV, fmt.Errorf("no header row"))
	}
	if err != nil {
		return nil, invalidData(FormatCSV, err)
	}

	ds := &dataset{format: FormatCSV, fields: header}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, invalidData(FormatCSV, err)
		}

		row := make(map[string]any, len(header))
		for i, f := range header {
			row[f] = rec[i]
		}
		ds.rows = append(ds.rows, row)
	}

	return ds, nil
}

// column holds the numeric values of one field with the record index each
// value came from. Records with an empty cell are absent.
type column struct {
	values []float64
	rows   []int
}

// numericColumns returns the fields whose every non-empty cell is a finite
// number. Empty cells are skipped; any other value excludes the field.
func (ds *dataset) numericColumns() (names []string, cols map[string]column) {
	cols = map[string]column{}

	for _, f := range ds.fields {
		var c column
		numeric := true

		for i, row := range ds.rows {
			x, ok, empty := toFloat(row[f])
			if empty {
				continue
			}
			if !ok {
				numeric = false
				break
			}
			c.values = append(c.values, x)
			c.rows = append(c.rows, i)
		}

		if numeric && len(c.values) > 0 {
			names = append(names, f)
			cols[f] = c
		}
	}

	return names, cols
}

// xs returns the record indexes as float64 for fitting against values.
func (c column) xs() []float64 {
	xs := make([]float64, len(c.rows))
	for i, r := range c.rows {
		xs[i] = float64(r)
	}
	return xs
}

// paired returns the values of a and b from the records where both are
// present.
func paired(a, b column) (xs, ys []float64) {
	j := 0
	for i, r := range a.rows {
		for j < len(b.rows) && b.rows[j] < r {
			j++
		}
		if j < len(b.rows) && b.rows[j] == r {
			xs = append(xs, a.values[i])
			ys = append(ys, b.values[j])
		}
	}
	return xs, ys
}

// toFloat reports whether v is a finite number. NaN and infinities are not
// numeric since they cannot be rendered as JSON.
func toFloat(v any) (x float64, ok, empty bool) {
	switch t := v.(type) {
	case nil:
		return 0, false, true
	case float64:
		return t, true, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, false
		}
		return f, true, false
	default:
		return 0, false, false
	}
}
