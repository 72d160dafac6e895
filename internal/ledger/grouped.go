package ledger

import "github.com/shopspring/decimal"

const (
	level1KeyLen = 3
	level2KeyLen = 5
)

// GroupedData is the fixed three level view keyed by code prefixes rather
// than by dot segments.
type GroupedData struct {
	Level1 map[string]*Level1Group `json:"level1"`
}

// Level1Group aggregates every record sharing the first three characters.
type Level1Group struct {
	Code   string                  `json:"code"`
	Debit  decimal.Decimal         `json:"debit"`
	Credit decimal.Decimal         `json:"credit"`
	Level2 map[string]*Level2Group `json:"level2"`
}

// Level2Group aggregates every record sharing the first five characters.
type Level2Group struct {
	Code   string          `json:"code"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Level3 map[string]Leaf `json:"level3"`
}

// Leaf is a single record inside a level-2 group.
type Leaf struct {
	Code        string          `json:"code"`
	AccountName string          `json:"accountName,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// BuildGrouped groups records in one pass. Keys are plain prefixes of the raw
// code, truncated when the code is shorter than the prefix. A repeated code
// replaces its leaf but is still added to the group sums.
func BuildGrouped(records []Record) GroupedData {
	grouped := GroupedData{Level1: make(map[string]*Level1Group)}
	for _, r := range records {
		code := r.AccountCode
		k1 := prefix(code, level1KeyLen)
		k2 := prefix(code, level2KeyLen)

		g1, ok := grouped.Level1[k1]
		if !ok {
			g1 = &Level1Group{Code: k1, Level2: make(map[string]*Level2Group)}
			grouped.Level1[k1] = g1
		}
		g2, ok := g1.Level2[k2]
		if !ok {
			g2 = &Level2Group{Code: k2, Level3: make(map[string]Leaf)}
			g1.Level2[k2] = g2
		}

		g2.Level3[code] = Leaf{
			Code:        code,
			AccountName: r.AccountName,
			Debit:       r.Debit,
			Credit:      r.Credit,
		}

		g1.Debit = g1.Debit.Add(r.Debit)
		g1.Credit = g1.Credit.Add(r.Credit)
		g2.Debit = g2.Debit.Add(r.Debit)
		g2.Credit = g2.Credit.Add(r.Credit)
	}
	return grouped
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
