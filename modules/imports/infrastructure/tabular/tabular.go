// Package tabular parses uploaded CSV and Excel files into raw tables and
// generates the CSV import templates.
package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor Excel.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table is a parsed upload: column names in file order plus the raw rows.
type Table struct {
	Columns []string
	Rows    []importing.RawRow
}

// Parse picks the parser from the filename extension.
func Parse(filename string, r io.Reader) (*Table, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return ParseCSV(r)
	case strings.HasSuffix(name, ".xlsx"), strings.HasSuffix(name, ".xls"):
		return ParseExcel(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseCSV reads a CSV upload. A UTF-8 BOM is tolerated, rows shorter than
// the header are padded with empty cells.
func ParseCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return tableFromRecords(records), nil
}

// ParseExcel reads the first sheet of an Excel upload.
func ParseExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "read excel rows")
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return tableFromRecords(records), nil
}

func tableFromRecords(records [][]string) *Table {
	columns := make([]string, len(records[0]))
	for i, col := range records[0] {
		columns[i] = strings.TrimSpace(col)
	}

	rows := make([]importing.RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(importing.RawRow, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return &Table{Columns: columns, Rows: rows}
}
