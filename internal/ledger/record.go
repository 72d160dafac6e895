package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one account row as delivered by the remote source and kept by the store.
type Record struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// HasCode reports whether the record carries a usable account code.
func (r Record) HasCode() bool {
	return strings.TrimSpace(r.AccountCode) != ""
}

// Net returns debit minus credit.
func (r Record) Net() decimal.Decimal {
	return r.Debit.Sub(r.Credit)
}

// ParseAmount converts a raw amount value into a decimal. Anything that
// cannot be read as a number becomes zero.
func ParseAmount(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case interface{ String() string }:
		return parseAmountString(t.String())
	case string:
		return parseAmountString(t)
	}
	return decimal.Zero
}

func parseAmountString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
