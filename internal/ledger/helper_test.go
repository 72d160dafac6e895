package ledger

import "github.com/shopspring/decimal"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rec(code, name, debit, credit string) Record {
	return Record{AccountCode: code, AccountName: name, Debit: dec(debit), Credit: dec(credit)}
}

// index flattens a forest into code -> node and code -> parent code.
func index(forest []Node) (map[string]Node, map[string]string) {
	nodes := make(map[string]Node)
	parents := make(map[string]string)
	var visit func(n Node, parent string)
	visit = func(n Node, parent string) {
		nodes[n.AccountCode] = n
		parents[n.AccountCode] = parent
		for _, c := range n.Children {
			visit(c, n.AccountCode)
		}
	}
	for _, root := range forest {
		visit(root, "")
	}
	return nodes, parents
}
