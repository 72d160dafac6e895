package export

import (
	"fmt"
	"io"
	"strings"

	"LedgerSync/internal/ledger"

	"github.com/xuri/excelize/v2"
)

const (
	TreeSheet    = "Mizan"
	RecordsSheet = "Kayitlar"
)

var treeHeader = []interface{}{"Hesap Kodu", "Hesap Adı", "Borç", "Alacak", "Bakiye"}

// WriteWorkbook writes the ledger as an xlsx workbook: the aggregated tree on
// the first sheet and the raw records on the second.
func WriteWorkbook(w io.Writer, forest []ledger.Node, records []ledger.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TreeSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(RecordsSheet); err != nil {
		return fmt.Errorf("creating records sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	numFmt := "#,##0.00"
	amount, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return err
	}

	if err := writeTree(f, forest, bold, amount); err != nil {
		return err
	}
	if err := writeRecords(f, records, bold, amount); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTree(f *excelize.File, forest []ledger.Node, bold, amount int) error {
	if err := f.SetSheetRow(TreeSheet, "A1", &treeHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(TreeSheet, 1, 1, bold); err != nil {
		return err
	}

	row := 2
	var werr error
	ledger.WalkForest(forest, func(n ledger.Node) bool {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			n.AccountCode,
			strings.Repeat("  ", n.Depth-1) + n.AccountName,
			n.TotalDebit().InexactFloat64(),
			n.TotalCredit().InexactFloat64(),
			n.Net().InexactFloat64(),
		}
		if werr = f.SetSheetRow(TreeSheet, cell, &values); werr != nil {
			return false
		}
		if n.Depth > 1 && n.Depth <= 8 {
			if werr = f.SetRowOutlineLevel(TreeSheet, row, uint8(n.Depth-1)); werr != nil {
				return false
			}
		}
		if n.Depth == 1 {
			if werr = f.SetRowStyle(TreeSheet, row, row, bold); werr != nil {
				return false
			}
		}
		row++
		return true
	})
	if werr != nil {
		return fmt.Errorf("writing tree row %d: %w", row, werr)
	}
	if row > 2 {
		end, _ := excelize.CoordinatesToCellName(5, row-1)
		if err := f.SetCellStyle(TreeSheet, "C2", end, amount); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(TreeSheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(TreeSheet, "B", "B", 40); err != nil {
		return err
	}
	return f.SetPanes(TreeSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeRecords(f *excelize.File, records []ledger.Record, bold, amount int) error {
	header := []interface{}{"hesap_kodu", "hesap_adi", "borc", "alacak"}
	if err := f.SetSheetRow(RecordsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(RecordsSheet, 1, 1, bold); err != nil {
		return err
	}
	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{r.AccountCode, r.AccountName, r.Debit.InexactFloat64(), r.Credit.InexactFloat64()}
		if err := f.SetSheetRow(RecordsSheet, cell, &values); err != nil {
			return fmt.Errorf("writing record row %d: %w", i+2, err)
		}
	}
	if len(records) > 0 {
		end, _ := excelize.CoordinatesToCellName(4, len(records)+1)
		if err := f.SetCellStyle(RecordsSheet, "C2", end, amount); err != nil {
			return err
		}
	}
	return nil
}
