// Package normalize canonicalizes raw employer strings and classifies them
// into industry buckets.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// Corporate suffixes dropped during canonicalization.
var stopTokens = map[string]struct{}{
	"INC":          {},
	"INCORPORATED": {},
	"CORP":         {},
	"CORPORATION":  {},
	"LLC":          {},
	"LTD":          {},
	"COMPANY":      {},
	"CO":           {},
}

// NormalizeName canonicalizes a raw employer string so that spelling variants
// collapse onto one key. Non-alphanumeric runs become single spaces, the
// result is uppercased, corporate suffixes are dropped, and an empty result
// becomes UNKNOWN.
func NormalizeName(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(' ')
		}
	}

	kept := make([]string, 0, 4)
	for _, token := range strings.Fields(b.String()) {
		if _, drop := stopTokens[token]; drop {
			continue
		}
		kept = append(kept, token)
	}

	if len(kept) == 0 {
		return models.UnknownEmployer
	}
	return strings.Join(kept, " ")
}

// EmployerHash returns the sha256 hex digest of a normalized employer name.
// The hash is the stable identity of the employer across runs.
func EmployerHash(normalizedName string) string {
	sum := sha256.Sum256([]byte(normalizedName))
	return hex.EncodeToString(sum[:])
}

// KeywordRule assigns an industry when any of its keywords appears in the
// combined employer and occupation text.
type KeywordRule struct {
	Keywords []string
	Code     string
	Name     string
	Sector   string
}

// DefaultKeywordRules is the ordered rule set. Order matters: the first rule
// with a matching keyword wins.
var DefaultKeywordRules = []KeywordRule{
	{Keywords: []string{"tech", "software"}, Code: "TECH", Name: "Technology", Sector: "Technology"},
	{Keywords: []string{"bank", "finance"}, Code: "FIN", Name: "Financial Services", Sector: "Finance"},
	{Keywords: []string{"construction"}, Code: "CONS", Name: "Construction", Sector: "Industrials"},
	{Keywords: []string{"education"}, Code: "EDU", Name: "Education", Sector: "Public Sector"},
}

// Classifier maps employer and occupation text onto an industry.
type Classifier struct {
	rules []KeywordRule
}

// NewClassifier builds a classifier over an ordered rule set. Pass
// DefaultKeywordRules unless a run overrides them.
func NewClassifier(rules []KeywordRule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the first rule matching the lowercased employer and
// occupation text, or nil when no keyword matches.
func (c *Classifier) Classify(employer, occupation string) *KeywordRule {
	haystack := strings.ToLower(employer + " " + occupation)
	for i := range c.rules {
		for _, kw := range c.rules[i].Keywords {
			if strings.Contains(haystack, kw) {
				return &c.rules[i]
			}
		}
	}
	return nil
}

// Industries returns the industry rows backing the rule set, used to seed the
// industries table before classification runs.
func (c *Classifier) Industries() []models.Industry {
	out := make([]models.Industry, 0, len(c.rules))
	for _, rule := range c.rules {
		out = append(out, models.Industry{Code: rule.Code, Name: rule.Name, Sector: rule.Sector})
	}
	return out
}
