package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Node is one account in the ledger tree. Debit and Credit hold the account's
// own values only; subtree totals are computed on demand.
type Node struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Depth       int             `json:"depth"`
	Synthesized bool            `json:"synthesized"`
	Children    []Node          `json:"children"`
}

// TotalDebit is the node's own debit plus the total debit of every child.
func (n Node) TotalDebit() decimal.Decimal {
	total := n.Debit
	for _, c := range n.Children {
		total = total.Add(c.TotalDebit())
	}
	return total
}

// TotalCredit is the node's own credit plus the total credit of every child.
func (n Node) TotalCredit() decimal.Decimal {
	total := n.Credit
	for _, c := range n.Children {
		total = total.Add(c.TotalCredit())
	}
	return total
}

// Net is the subtree balance, total debit minus total credit.
func (n Node) Net() decimal.Decimal {
	return n.TotalDebit().Sub(n.TotalCredit())
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits n and its descendants depth first, parents before children.
// Returning false from fn skips the node's children.
func (n Node) Walk(fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// WalkForest walks every root of forest in order.
func WalkForest(forest []Node, fn func(Node) bool) {
	for _, root := range forest {
		root.Walk(fn)
	}
}

// CountNodes returns the number of nodes in forest.
func CountNodes(forest []Node) int {
	count := 0
	WalkForest(forest, func(Node) bool {
		count++
		return true
	})
	return count
}

// Builder turns flat records into a ledger forest. It keeps no state between
// calls and is safe for concurrent use.
type Builder struct {
	names NameBook
}

// NewBuilder returns a Builder that labels unnamed accounts from names.
// A nil book falls back to DefaultNames.
func NewBuilder(names NameBook) *Builder {
	if names == nil {
		names = DefaultNames()
	}
	return &Builder{names: names}
}

// Names returns the book used for labels.
func (b *Builder) Names() NameBook {
	return b.names
}

// arenaNode is a node under construction; children are indices into the arena.
type arenaNode struct {
	node     Node
	children []int
}

// BuildForest builds the account forest for records. Records with a blank code
// are dropped, ancestors implied by a code but absent from the input are
// synthesized with zero amounts, and a repeated code keeps its last record.
func (b *Builder) BuildForest(records []Record) []Node {
	valid := make([]Record, 0, len(records))
	for _, r := range records {
		if r.HasCode() {
			valid = append(valid, r)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].AccountCode < valid[j].AccountCode
	})

	arena := make([]arenaNode, 0, len(valid))
	index := make(map[string]int, len(valid))
	for _, r := range valid {
		n := Node{
			AccountCode: r.AccountCode,
			AccountName: r.AccountName,
			Debit:       r.Debit,
			Credit:      r.Credit,
			Depth:       Depth(r.AccountCode),
		}
		if n.AccountName == "" {
			n.AccountName = b.names.Label(r.AccountCode)
		}
		if i, ok := index[r.AccountCode]; ok {
			arena[i].node = n
			continue
		}
		index[r.AccountCode] = len(arena)
		arena = append(arena, arenaNode{node: n})
	}
	originals := len(arena)

	pending := make(map[string]struct{})
	for i := 0; i < originals; i++ {
		for _, code := range Ancestors(arena[i].node.AccountCode) {
			if _, ok := index[code]; !ok {
				pending[code] = struct{}{}
			}
		}
	}
	missing := make([]string, 0, len(pending))
	for code := range pending {
		missing = append(missing, code)
	}
	sort.Strings(missing)
	for _, code := range missing {
		index[code] = len(arena)
		arena = append(arena, arenaNode{node: Node{
			AccountCode: code,
			AccountName: b.names.Label(code),
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
			Depth:       Depth(code),
			Synthesized: true,
		}})
	}

	var roots []int
	for i := range arena {
		parent, ok := ParentCode(arena[i].node.AccountCode)
		if ok {
			if p, found := index[parent]; found {
				arena[p].children = append(arena[p].children, i)
				continue
			}
		}
		roots = append(roots, i)
	}

	forest := make([]Node, 0, len(roots))
	for _, i := range roots {
		forest = append(forest, materialize(arena, i))
	}
	return forest
}

func materialize(arena []arenaNode, i int) Node {
	n := arena[i].node
	n.Children = make([]Node, 0, len(arena[i].children))
	for _, c := range arena[i].children {
		n.Children = append(n.Children, materialize(arena, c))
	}
	return n
}
