// Package export renders report rows as CSV or XLSX tables.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoData = errors.New("no data to export")

// Field is one key/value cell of a record. A Record value is flattened into
// parent_child columns.
type Field struct {
	Key   string
	Value any
}

// Record keeps its fields in column order.
type Record []Field

// flatten expands nested records into parent_child keys, keeping order.
func flatten(record Record, prefix string) Record {
	out := make(Record, 0, len(record))
	for _, field := range record {
		key := field.Key
		if prefix != "" {
			key = prefix + "_" + key
		}
		if nested, ok := field.Value.(Record); ok {
			out = append(out, flatten(nested, key)...)
			continue
		}
		out = append(out, Field{Key: key, Value: field.Value})
	}
	return out
}

// Header returns the flattened keys of the first record.
func Header(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	first := flatten(records[0], "")
	header := make([]string, 0, len(first))
	for _, field := range first {
		header = append(header, field.Key)
	}
	return header
}

// Table flattens the records and lines every row up under the header of the
// first record. Keys missing from a later record render empty; keys the
// first record lacks are dropped.
func Table(records []Record) ([]string, [][]any) {
	header := Header(records)
	rows := make([][]any, 0, len(records))
	for _, record := range records {
		values := make(map[string]any, len(header))
		for _, field := range flatten(record, "") {
			if _, seen := values[field.Key]; !seen {
				values[field.Key] = field.Value
			}
		}
		row := make([]any, len(header))
		for i, key := range header {
			row[i] = values[key]
		}
		rows = append(rows, row)
	}
	return header, rows
}

// FormatValue renders a cell as text. nil, empty strings, nil pointers and
// zero times render as the empty string.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case decimal.Decimal:
		return v.String()
	case *decimal.Decimal:
		if v == nil {
			return ""
		}
		return v.String()
	case time.Time:
		return formatTime(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatTime(*v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// quote wraps values holding a comma, quote or line break in double quotes
// and doubles the inner quotes. Everything else is written bare.
func quote(value string) string {
	if !strings.ContainsAny(value, ",\"\r\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// WriteCSV writes the header row and one line per record, separated by
// newlines.
func WriteCSV(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return ErrNoData
	}
	header, rows := Table(records)

	buf := bufio.NewWriter(w)
	cells := make([]string, len(header))
	for i, key := range header {
		cells[i] = quote(key)
	}
	if _, err := buf.WriteString(strings.Join(cells, ",")); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		for i, value := range row {
			cells[i] = quote(FormatValue(value))
		}
		if _, err := buf.WriteString("\n" + strings.Join(cells, ",")); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
