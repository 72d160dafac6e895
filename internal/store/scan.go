package store

import (
	"LedgerSync/internal/ledger"

	"github.com/shopspring/decimal"
)

// rowScanner is satisfied by pgx.Row(s) and *sql.Row(s).
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (ledger.Record, error) {
	var (
		r             ledger.Record
		debit, credit string
	)
	if err := row.Scan(&r.AccountCode, &r.AccountName, &debit, &credit); err != nil {
		return ledger.Record{}, err
	}
	var err error
	if r.Debit, err = decimal.NewFromString(debit); err != nil {
		return ledger.Record{}, err
	}
	if r.Credit, err = decimal.NewFromString(credit); err != nil {
		return ledger.Record{}, err
	}
	return r, nil
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e             Entry
		debit, credit string
	)
	if err := row.Scan(&e.AccountCode, &e.AccountName, &debit, &credit, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Entry{}, err
	}
	var err error
	if e.Debit, err = decimal.NewFromString(debit); err != nil {
		return Entry{}, err
	}
	if e.Credit, err = decimal.NewFromString(credit); err != nil {
		return Entry{}, err
	}
	return e, nil
}
