package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (total_net -> total_without_vat)
// - Drops null/empty optionals
// - Coerces numeric -> string for money fields
// - Wraps a bare items_details string into a one-element list
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to the schema
	renamed("total_net", "total_without_vat")
	renamed("net_amount", "total_without_vat")
	renamed("gross_amount", "total_amount")
	renamed("vat", "vat_amount")
	renamed("currency_code", "currency")

	// 2) drop null / "" for optionals; coerce money fields to strings
	moneyFields := []string{"total_amount", "total_without_vat", "vat_amount", "vat_rate"}
	for _, k := range moneyFields {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case float64:
				m[k] = fmt.Sprintf("%.2f", t)
			case string:
				s := strings.TrimSpace(t)
				if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
					delete(m, k)
					dropped = append(dropped, k+"(empty)")
				} else {
					m[k] = s
				}
			case nil:
				delete(m, k)
				dropped = append(dropped, k+"(null)")
			default:
				delete(m, k)
				dropped = append(dropped, k+"(type)")
			}
		}
	}

	// vat_rate sometimes arrives as a percentage ("19" or "19%"); scale to a fraction
	if v, ok := m["vat_rate"].(string); ok {
		s := strings.TrimSuffix(strings.TrimSpace(v), "%")
		if d, err := decimal.NewFromString(s); err == nil && d.GreaterThan(decimal.NewFromInt(1)) {
			m["vat_rate"] = d.Div(decimal.NewFromInt(100)).String()
		}
	}

	// 3) items_details: accept a bare string, drop non-string members
	switch t := m["items_details"].(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			m["items_details"] = []any{s}
		} else {
			delete(m, "items_details")
			dropped = append(dropped, "items_details(empty)")
		}
	case []any:
		kept := make([]any, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				kept = append(kept, strings.TrimSpace(s))
			}
		}
		m["items_details"] = kept
	case nil:
		delete(m, "items_details")
	}

	// 4) confidences: accept floats, clamp into 0..10 integers
	for k, v := range maps.Clone(m) {
		if !strings.HasSuffix(k, "_confidence") {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			delete(m, k)
			dropped = append(dropped, k+"(type)")
			continue
		}
		n := int(f)
		if n < 0 {
			n = 0
		}
		if n > 10 {
			n = 10
		}
		m[k] = n
	}

	// 5) currency casing
	if v, ok := m["currency"].(string); ok {
		s := strings.ToUpper(strings.TrimSpace(v))
		if s == "" {
			delete(m, "currency")
			dropped = append(dropped, "currency(empty)")
		} else {
			m["currency"] = s
		}
	}

	// 6) remove unknown keys
	allowed := map[string]struct{}{
		"invoice_number": {}, "invoice_date": {}, "vendor_name": {}, "items_details": {},
		"total_amount": {}, "total_without_vat": {}, "vat_amount": {}, "vat_rate": {},
		"currency": {},
		"invoice_number_confidence": {}, "invoice_date_confidence": {},
		"vendor_name_confidence": {}, "items_details_confidence": {},
		"total_amount_confidence": {}, "total_without_vat_confidence": {},
		"vat_amount_confidence": {}, "currency_confidence": {},
	}
	for key := range maps.Clone(m) {
		if _, ok := allowed[key]; !ok {
			delete(m, key)
			dropped = append(dropped, key+"(unknown)")
		}
	}

	// 7) trim obvious strings
	for _, key := range []string{"invoice_number", "invoice_date", "vendor_name"} {
		if v, ok := m[key].(string); ok {
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, key)
				dropped = append(dropped, key+"(empty)")
			} else {
				m[key] = s
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("ingest.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// NormalizeAmount turns the money notations the extraction service emits
// ("1.234,56", "1,234.56", "EUR 1234.56") into a canonical decimal string.
func NormalizeAmount(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	// keep digits, separators and sign; drops currency symbols and codes
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return "", false
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// the rightmost separator is the decimal point
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// a single trailing comma with 1-2 digits is a decimal point,
		// anything else is thousands grouping
		if strings.Count(s, ",") == 1 && len(s)-lastComma <= 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		// 1.234.567 style grouping
		last := strings.LastIndexByte(s, '.')
		if len(s)-last <= 3 {
			s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	return d.String(), true
}
