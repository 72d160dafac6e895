package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"LedgerSync/internal/ledger"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the implied currency of every ledger amount.
const DefaultCurrency = money.TRY

// Format renders amount in currency using the currency's own separators and
// symbol. Amounts are rounded to the currency's minor unit.
func Format(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// Options controls WriteTree.
type Options struct {
	Currency string
	// MaxDepth hides nodes deeper than this level; zero shows everything.
	MaxDepth int
	// HideZero skips subtrees whose totals are all zero.
	HideZero bool
}

// WriteTree prints the ledger tree as an aligned text table followed by a
// grand total line.
func WriteTree(w io.Writer, forest []ledger.Node, opts Options) error {
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Kod\tHesap\tBorç\tAlacak\tBakiye\t")

	debit, credit := decimal.Zero, decimal.Zero
	for _, root := range forest {
		debit = debit.Add(root.TotalDebit())
		credit = credit.Add(root.TotalCredit())
	}

	ledger.WalkForest(forest, func(n ledger.Node) bool {
		if opts.MaxDepth > 0 && n.Depth > opts.MaxDepth {
			return false
		}
		td, tc := n.TotalDebit(), n.TotalCredit()
		if opts.HideZero && td.IsZero() && tc.IsZero() {
			return false
		}
		name := strings.Repeat("  ", n.Depth-1) + n.AccountName
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			n.AccountCode, name,
			Format(td, opts.Currency), Format(tc, opts.Currency), Format(td.Sub(tc), opts.Currency))
		return true
	})
	fmt.Fprintf(tw, "\tTOPLAM\t%s\t%s\t%s\t\n",
		Format(debit, opts.Currency), Format(credit, opts.Currency), Format(debit.Sub(credit), opts.Currency))
	return tw.Flush()
}
