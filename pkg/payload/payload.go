// Package payload extracts typed fields out of raw staged rows. Source files
// and API pages name the same field differently across vintages, so every
// accessor takes the list of known aliases and returns the first usable value.
package payload

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Alias sets for the fields that vary across source vintages.
var (
	CandidateIDAliases        = []string{"fec_id", "candidate_id"}
	CommitteeIDAliases        = []string{"fec_id", "committee_id"}
	CommitteeNameAliases      = []string{"name", "committee_name"}
	ReceiptCandidateAliases   = []string{"cand_id"}
	ReceiptCommitteeAliases   = []string{"committee_id", "cmte_id"}
	ReceiptTransactionAliases = []string{"fec_record_id", "transaction_id"}
)

// FirstString returns the first alias present with a non-empty trimmed string
// value, or nil when none match.
func FirstString(data map[string]any, keys ...string) *string {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			s = fmt.Sprintf("%v", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		return &s
	}
	return nil
}

// FirstInt returns the first alias parseable as an integer, or nil.
func FirstInt(data map[string]any, keys ...string) *int {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case int:
			return &v
		case int64:
			n := int(v)
			return &n
		case float64:
			n := int(v)
			return &n
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err == nil {
				return &n
			}
		}
	}
	return nil
}

// ParseCents converts an amount value to integer cents. String amounts are
// parsed digit-wise so "1234.56" never takes a float round trip; numeric
// values are rounded to the nearest cent. Fractions beyond two places are
// rejected rather than silently truncated.
func ParseCents(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return int64(math.Round(v * 100)), nil
	case int:
		return int64(v) * 100, nil
	case int64:
		return v * 100, nil
	case string:
		return parseCentsString(strings.TrimSpace(v))
	case nil:
		return 0, fmt.Errorf("amount is null")
	default:
		return 0, fmt.Errorf("unsupported amount type %T", raw)
	}
}

func parseCentsString(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	total := dollars*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

// Date layouts seen across bulk files and the API.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"20060102",
}

// ParseDate returns the date held by the first matching alias, or nil when
// the field is absent or unparseable. Callers treat nil as "date unknown".
func ParseDate(data map[string]any, keys ...string) *time.Time {
	s := FirstString(data, keys...)
	if s == nil {
		return nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, *s)
		if err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseTimestamp parses a created_at style value, returning nil when absent
// or invalid.
func ParseTimestamp(raw any) *time.Time {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
