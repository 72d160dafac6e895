package remote

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"LedgerSync/internal/ledger"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrNoHeader means no row of the sheet named an account code column.
var ErrNoHeader = errors.New("no header row with an account code column")

// headerAliases maps accepted column titles to canonical field names.
var headerAliases = map[string]string{
	FieldCode:      FieldCode,
	"account_code": FieldCode,
	"accountcode":  FieldCode,
	"hesap kodu":   FieldCode,
	"hesap_adi":    "hesap_adi",
	"account_name": "hesap_adi",
	"accountname":  "hesap_adi",
	"hesap adi":    "hesap_adi",
	FieldDebit:     FieldDebit,
	"debit":        FieldDebit,
	FieldCredit:    FieldCredit,
	"credit":       FieldCredit,
}

// ReadSpreadsheet parses an uploaded ledger sheet. The first sheet of an
// xlsx or legacy xls workbook is used; anything else is read as CSV.
func ReadSpreadsheet(data []byte) ([]ledger.Record, error) {
	rows, err := readRows(data)
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows)
}

func readRows(data []byte) ([][]string, error) {
	if f, err := excelize.OpenReader(bytes.NewReader(data)); err == nil {
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
		}
		return rows, nil
	}
	if rows, ok := readXLS(data); ok {
		return rows, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLS(data []byte) (rows [][]string, ok bool) {
	// the xls parser panics on some non-xls input
	defer func() {
		if recover() != nil {
			rows, ok = nil, false
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil || wb == nil {
		return nil, false
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, false
	}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, true
}

func recordsFromRows(rows [][]string) ([]ledger.Record, error) {
	header := -1
	cols := map[string]int{}
	for i, row := range rows {
		found := map[string]int{}
		for j, cell := range row {
			key := strings.ToLower(strings.TrimSpace(cell))
			if canon, ok := headerAliases[key]; ok {
				if _, dup := found[canon]; !dup {
					found[canon] = j
				}
			}
		}
		if _, ok := found[FieldCode]; ok {
			header, cols = i, found
			break
		}
	}
	if header < 0 {
		return nil, ErrNoHeader
	}

	cell := func(row []string, field string) string {
		j, ok := cols[field]
		if !ok || j >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[j])
	}

	records := make([]ledger.Record, 0, len(rows)-header-1)
	for _, row := range rows[header+1:] {
		code := cell(row, FieldCode)
		if code == "" {
			continue
		}
		records = append(records, ledger.Record{
			AccountCode: code,
			AccountName: cell(row, "hesap_adi"),
			Debit:       ledger.ParseAmount(cell(row, FieldDebit)),
			Credit:      ledger.ParseAmount(cell(row, FieldCredit)),
		})
	}
	return records, nil
}
