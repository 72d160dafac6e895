package ledger

import "github.com/shopspring/decimal"

const sampleSize = 5

// Summary holds whole-ledger totals.
type Summary struct {
	TotalRecords      int             `json:"totalRecords"`
	ValidAccounts     int             `json:"validAccounts"`
	TotalDebit        decimal.Decimal `json:"totalDebit"`
	TotalCredit       decimal.Decimal `json:"totalCredit"`
	NetBalance        decimal.Decimal `json:"netBalance"`
	RecordsWithDebit  int             `json:"recordsWithDebit"`
	RecordsWithCredit int             `json:"recordsWithCredit"`
	SampleRecords     []Record        `json:"sampleRecords"`
}

// Summarize totals every positive debit and credit in records.
func Summarize(records []Record) Summary {
	s := Summary{
		TotalRecords: len(records),
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
	}
	for _, r := range records {
		if r.HasCode() {
			s.ValidAccounts++
		}
		if r.Debit.IsPositive() {
			s.TotalDebit = s.TotalDebit.Add(r.Debit)
			s.RecordsWithDebit++
		}
		if r.Credit.IsPositive() {
			s.TotalCredit = s.TotalCredit.Add(r.Credit)
			s.RecordsWithCredit++
		}
	}
	s.NetBalance = s.TotalDebit.Sub(s.TotalCredit)

	n := len(records)
	if n > sampleSize {
		n = sampleSize
	}
	s.SampleRecords = append([]Record{}, records[:n]...)
	return s
}
