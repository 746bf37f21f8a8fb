// Package importer turns loosely typed spreadsheet rows into catalog
// products and partners.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Row is one loosely typed input record keyed by its original header.
type Row map[string]string

// ReadRows reads the first sheet of an XLSX workbook or a CSV file into
// rows keyed by the header line. The format is picked from the file
// extension, falling back to sniffing when the extension is unknown.
func ReadRows(fileName string, reader io.Reader) ([]Row, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	var table [][]string
	switch strings.ToLower(strings.TrimSpace(filepath.Ext(fileName))) {
	case ".csv":
		table, err = parseCSVRows(data)
	case ".xlsx", ".xlsm":
		table, err = parseExcelRows(data)
	default:
		table, err = parseExcelRows(data)
		if err != nil {
			table, err = parseCSVRows(data)
		}
	}
	if err != nil {
		return nil, err
	}
	return rowsFromTable(table)
}

func parseCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	return rows, nil
}

func parseExcelRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}
	return rows, nil
}

func rowsFromTable(table [][]string) ([]Row, error) {
	header := make([]string, len(table[0]))
	for i, col := range table[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	}

	result := make([]Row, 0, len(table)-1)
	for index := 1; index < len(table); index++ {
		cells := table[index]
		row := make(Row, len(header))
		for i, key := range header {
			if key == "" {
				continue
			}
			value := strings.TrimSpace(readCell(cells, i))
			if value != "" {
				row[key] = value
			}
		}
		if len(row) == 0 {
			continue
		}
		result = append(result, row)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("file has no valid data rows")
	}
	return result, nil
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(foldAccents(value))
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

// foldAccents strips combining marks so "Catégorie" and "Categorie" map to
// the same column.
func foldAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}

// RowsFromMaps converts decoded JSON objects into rows. Numbers keep their
// shortest decimal form and null values are dropped.
func RowsFromMaps(items []map[string]any) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := make(Row, len(item))
		for key, value := range item {
			var text string
			switch v := value.(type) {
			case nil:
				continue
			case string:
				text = v
			case float64:
				text = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				text = strconv.FormatBool(v)
			default:
				text = fmt.Sprint(v)
			}
			if text = strings.TrimSpace(text); text != "" {
				row[key] = text
			}
		}
		rows = append(rows, row)
	}
	return rows
}
