package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnknownAccountName labels accounts that have neither a supplied name nor an
// entry in the name book.
const UnknownAccountName = "ANA HESAP"

// NameBook maps account codes to human readable labels of the chart of accounts.
type NameBook map[string]string

// DefaultNames returns a fresh copy of the built-in chart labels.
func DefaultNames() NameBook {
	return NameBook{
		"100":    "KASA VE BANKA",
		"100.01": "KASA",
		"100.02": "BANKA",
		"120":    "TİCARİ ALACAKLAR",
		"120.01": "ALICILAR",
		"153":    "TİCARİ MALLAR",
		"153.01": "TİCARİ MALLAR",
		"191":    "İNDİRİLECEK VERGİLER",
		"191.01": "İNDİRİLECEK KDV",
		"191.02": "İNDİRİLECEK KDV TEVKİFATI",
		"191.03": "İNDİRİLECEK İADE KDV",
		"320":    "TİCARİ BORÇLAR",
		"320.01": "SATICILAR",
		"360":    "ÖDENECEK VERGİLER",
		"360.02": "ÖDENECEK TİCARİ VERGİLER",
		"391":    "HESAPLANAN VERGİLER",
		"391.01": "HESAPLANAN KDV",
		"391.02": "HESAPLANAN KDV TEVKİFATI",
		"391.03": "HESAPLANAN İADE KDV",
		"600":    "SATIŞLAR",
		"600.01": "YURTİÇİ SATIŞLAR",
		"610":    "SATIŞTAN İADELER",
		"610.01": "SATIŞTAN İADELER",
	}
}

// Lookup returns the label registered for code.
func (b NameBook) Lookup(code string) (string, bool) {
	name, ok := b[code]
	return name, ok && name != ""
}

// Label returns the registered label or UnknownAccountName.
func (b NameBook) Label(code string) string {
	if name, ok := b.Lookup(code); ok {
		return name
	}
	return UnknownAccountName
}

// Merge returns a new book with the entries of other laid over b.
func (b NameBook) Merge(other NameBook) NameBook {
	out := make(NameBook, len(b)+len(other))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// LoadNames reads a YAML mapping of code to label and lays it over the
// default book. An empty path yields the defaults.
func LoadNames(path string) (NameBook, error) {
	if path == "" {
		return DefaultNames(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading account names: %w", err)
	}
	var extra NameBook
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parsing account names: %w", err)
	}
	return DefaultNames().Merge(extra), nil
}
