package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"LedgerSync/internal/ledger"
)

// Field names used by the FileMaker layouts.
const (
	FieldCode   = "hesap_kodu"
	FieldDebit  = "borc"
	FieldCredit = "alacak"
)

// NameFields are tried in order; the first non-empty value names the account.
var NameFields = []string{
	"hesap_adi",
	"firma_adi",
	"sirket_adi",
	"unvan",
	"cari_adi",
	"musteri_adi",
	"tedarikci_adi",
}

type envelope struct {
	Response struct {
		ScriptResult *string `json:"scriptResult"`
		Data         []struct {
			FieldData map[string]interface{} `json:"fieldData"`
		} `json:"data"`
	} `json:"response"`
}

// Normalize maps a Data API response body onto records. Three layouts are
// recognized: a script result holding a JSON array, a single record whose
// "data" field holds a JSON array, and plain per-record field data.
func Normalize(body []byte) ([]ledger.Record, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	if sr := env.Response.ScriptResult; sr != nil && strings.TrimSpace(*sr) != "" {
		items, err := decodeItems(*sr)
		if err != nil {
			return nil, fmt.Errorf("%w: scriptResult: %v", ErrUnrecognizedShape, err)
		}
		return toRecords(items), nil
	}

	data := env.Response.Data
	if data == nil {
		return nil, ErrUnrecognizedShape
	}
	if len(data) == 0 {
		return []ledger.Record{}, nil
	}

	if nested, ok := data[0].FieldData["data"].(string); ok {
		items, err := decodeItems(nested)
		if err != nil {
			return nil, fmt.Errorf("%w: fieldData.data: %v", ErrUnrecognizedShape, err)
		}
		return toRecords(items), nil
	}

	items := make([]map[string]interface{}, 0, len(data))
	for _, d := range data {
		if d.FieldData != nil {
			items = append(items, d.FieldData)
		}
	}
	if len(items) == 0 {
		return nil, ErrUnrecognizedShape
	}
	return toRecords(items), nil
}

func decodeItems(s string) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var items []map[string]interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func toRecords(items []map[string]interface{}) []ledger.Record {
	records := make([]ledger.Record, 0, len(items))
	for _, it := range items {
		records = append(records, FromFields(it))
	}
	return records
}

// FromFields builds a record from one item of field values.
func FromFields(fields map[string]interface{}) ledger.Record {
	return ledger.Record{
		AccountCode: stringField(fields[FieldCode]),
		AccountName: firstName(fields),
		Debit:       ledger.ParseAmount(fields[FieldDebit]),
		Credit:      ledger.ParseAmount(fields[FieldCredit]),
	}
}

func firstName(fields map[string]interface{}) string {
	for _, k := range NameFields {
		if v := stringField(fields[k]); v != "" {
			return v
		}
	}
	return ""
}

func stringField(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
