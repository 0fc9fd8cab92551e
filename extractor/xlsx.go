package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parse decodes a multi-sheet xlsx workbook and runs question extraction over
// it. The first row of each sheet is the header row; non-empty header cells
// become named columns and empty ones positional columns. Unparseable bytes
// are a fatal error with no partial result.
func (p *Parser) Parse(fileBytes []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	structure := map[string]Structure{}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}

		sheet := buildSheet(name, rows)
		sheets = append(sheets, sheet)

		structure[name] = Structure{
			RowCount: len(sheet.Rows),
			Headers:  sheet.Headers,
		}
	}

	return &Result{
		Sheets:    sheets,
		Questions: p.ExtractQuestions(sheets),
		Structure: structure,
	}, nil
}

func buildSheet(name string, raw [][]string) Sheet {
	sheet := Sheet{Name: name}

	if len(raw) == 0 {
		return sheet
	}

	for i, cell := range raw[0] {
		if len(strings.TrimSpace(cell)) > 0 {
			sheet.Headers = append(sheet.Headers, NamedColumn(cell))
		} else {
			sheet.Headers = append(sheet.Headers, PositionalColumn(i))
		}
	}

	// Data rows can be wider than the header row; widen with positional keys
	// so every cell stays addressable.
	for _, cells := range raw[1:] {
		for i := len(sheet.Headers); i < len(cells); i++ {
			sheet.Headers = append(sheet.Headers, PositionalColumn(i))
		}
	}

	for _, cells := range raw[1:] {
		row := Row{}
		for i, key := range sheet.Headers {
			if i < len(cells) {
				row[key] = cells[i]
			} else {
				row[key] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet
}
