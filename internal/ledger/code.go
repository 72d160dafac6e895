package ledger

import "strings"

// SegmentSeparator splits an account code into its levels.
const SegmentSeparator = "."

// MaxDepth is the deepest level that has a parent rule.
const MaxDepth = 3

// Segments splits code on the segment separator.
func Segments(code string) []string {
	return strings.Split(code, SegmentSeparator)
}

// Depth is the number of segments in code: "100" is 1, "100.01" is 2,
// "100.01.00001001" is 3.
func Depth(code string) int {
	return strings.Count(code, SegmentSeparator) + 1
}

// ParentCode derives the code of the direct ancestor. Level-1 codes are roots,
// and codes deeper than MaxDepth have no parent rule, so both report false.
// A parent that would be blank, as for ".01", is not a parent either.
func ParentCode(code string) (string, bool) {
	parts := Segments(code)
	var parent string
	switch len(parts) {
	case 2:
		parent = parts[0]
	case 3:
		parent = parts[0] + SegmentSeparator + parts[1]
	default:
		return "", false
	}
	if strings.TrimSpace(parent) == "" {
		return "", false
	}
	return parent, true
}

// Ancestors lists every ancestor of code, nearest first.
func Ancestors(code string) []string {
	var out []string
	for parent, ok := ParentCode(code); ok; parent, ok = ParentCode(parent) {
		out = append(out, parent)
	}
	return out
}
