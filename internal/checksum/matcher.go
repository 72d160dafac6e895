package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"LedgerSync/internal/ledger"
)

// Fingerprint hashes a record snapshot. The result does not depend on input
// order; amounts are hashed in canonical decimal form so 10 and 10.00 agree.
func Fingerprint(records []ledger.Record) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, strings.Join([]string{
			r.AccountCode,
			r.AccountName,
			r.Debit.String(),
			r.Credit.String(),
		}, "\x1f"))
	}
	sort.Strings(lines)

	hash := sha256.New()
	for _, l := range lines {
		hash.Write([]byte(l))
		hash.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hash.Sum(nil))
}

// Matcher remembers the last fingerprint seen per source.
type Matcher struct {
	mu   sync.Mutex
	last map[string]string
}

func NewMatcher() *Matcher {
	return &Matcher{last: make(map[string]string)}
}

// Observe fingerprints records and reports whether they differ from the
// previous snapshot of source. The first snapshot of a source counts as a change.
func (m *Matcher) Observe(source string, records []ledger.Record) (string, bool) {
	sum := Fingerprint(records)

	m.mu.Lock()
	defer m.mu.Unlock()
	prev, seen := m.last[source]
	m.last[source] = sum
	return sum, !seen || prev != sum
}

// Last returns the most recent fingerprint for source.
func (m *Matcher) Last(source string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, ok := m.last[source]
	return sum, ok
}
