// Package decode turns an uploaded tabular file into a sequence of raw
// rows: a mapping from column header to cell value, with header order
// preserved. CSV files go through encoding/csv, xlsx/xlsm workbooks through
// excelize. Any failure here is a hard error: a file that cannot be decoded
// yields no row-level data at all, so the whole upload is rejected rather
// than a partial dataset produced.
package decode

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/coursedash/coursedash/internal/dashcore"
)

// ErrUnsupportedFormat is returned for file extensions the decoder does not
// recognize.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmptyFile is returned when a file decodes to no header row.
var ErrEmptyFile = errors.New("file contains no header row")

// Reader decodes r into raw rows, choosing the codec from the filename
// extension. Extensions .csv and .txt decode as CSV; .xlsx and .xlsm as a
// workbook (first sheet only).
func Reader(r io.Reader, filename string) ([]dashcore.RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return CSV(r)
	case ".xlsx", ".xlsm":
		return Workbook(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// CSV decodes comma-separated data. The first row is the header row; rows
// shorter than it are padded with empty cells, longer rows have their
// overflow dropped.
func CSV(r io.Reader) ([]dashcore.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}

	var rows []dashcore.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, buildRow(header, record))
	}
	return rows, nil
}

// Workbook decodes the first sheet of an xlsx/xlsm workbook.
func Workbook(r io.Reader) ([]dashcore.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, ErrEmptyFile
	}

	header := cells[0]
	var rows []dashcore.RawRow
	for _, record := range cells[1:] {
		rows = append(rows, buildRow(header, record))
	}
	return rows, nil
}

// buildRow pairs a data record with the header row. Columns with a blank
// header are skipped entirely; missing trailing cells become empty strings.
func buildRow(header, record []string) dashcore.RawRow {
	row := dashcore.RawRow{Cells: make(map[string]any, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		val := ""
		if i < len(record) {
			val = record[i]
		}
		row.Headers = append(row.Headers, h)
		row.Cells[h] = val
	}
	return row
}
