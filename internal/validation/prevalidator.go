package validation

import (
	"fmt"

	"LedgerSync/internal/ledger"

	"go.uber.org/zap"
)

// Kind classifies a data-quality warning.
type Kind string

const (
	BlankCode     Kind = "blank_code"
	MalformedCode Kind = "malformed_code"
	TooDeep       Kind = "too_deep"
	MissingName   Kind = "missing_name"
	DuplicateCode Kind = "duplicate_code"
	NegativeValue Kind = "negative_amount"
)

// Gap is one warning about a record. Gaps never stop a sync.
type Gap struct {
	Index int    `json:"index"`
	Code  string `json:"accountCode"`
	Kind  Kind   `json:"kind"`
}

func (g Gap) String() string {
	return fmt.Sprintf("record %d (%q): %s", g.Index, g.Code, g.Kind)
}

// Report summarizes the warnings found in a batch.
type Report struct {
	Total int   `json:"total"`
	Gaps  []Gap `json:"gaps"`
}

// Count returns the number of gaps of kind k.
func (r Report) Count(k Kind) int {
	n := 0
	for _, g := range r.Gaps {
		if g.Kind == k {
			n++
		}
	}
	return n
}

// Clean reports whether the batch had no warnings.
func (r Report) Clean() bool {
	return len(r.Gaps) == 0
}

// Inspect checks a batch of records before it is persisted.
func Inspect(records []ledger.Record) Report {
	rep := Report{Total: len(records), Gaps: make([]Gap, 0)}
	seen := make(map[string]struct{}, len(records))
	add := func(i int, code string, k Kind) {
		rep.Gaps = append(rep.Gaps, Gap{Index: i, Code: code, Kind: k})
	}

	for i, r := range records {
		code := NormalizeCode(r.AccountCode)
		if code == "" {
			add(i, r.AccountCode, BlankCode)
			continue
		}
		if !ValidCodeShape(code) {
			add(i, code, MalformedCode)
		}
		if ledger.Depth(code) > ledger.MaxDepth {
			add(i, code, TooDeep)
		}
		if r.AccountName == "" {
			add(i, code, MissingName)
		}
		if r.Debit.IsNegative() || r.Credit.IsNegative() {
			add(i, code, NegativeValue)
		}
		if _, dup := seen[r.AccountCode]; dup {
			add(i, code, DuplicateCode)
		}
		seen[r.AccountCode] = struct{}{}
	}
	return rep
}

// Log writes the report as warnings. Missing names are common and only
// summarized.
func (r Report) Log(log *zap.Logger) {
	if r.Clean() {
		return
	}
	for _, g := range r.Gaps {
		if g.Kind == MissingName {
			continue
		}
		log.Warn("ledger record warning",
			zap.Int("index", g.Index),
			zap.String("account_code", g.Code),
			zap.String("kind", string(g.Kind)))
	}
	if n := r.Count(MissingName); n > 0 {
		log.Warn("ledger records without name", zap.Int("count", n))
	}
}
