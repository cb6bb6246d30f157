package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "drops corporate suffix", raw: "Acme, Inc.", want: "ACME"},
		{name: "collapses punctuation", raw: "smith & wesson co.", want: "SMITH WESSON"},
		{name: "keeps interior digits", raw: "3M Company", want: "3M"},
		{name: "multiple suffixes", raw: "Widgets Incorporated LLC", want: "WIDGETS"},
		{name: "suffix only becomes unknown", raw: "Inc.", want: "UNKNOWN"},
		{name: "empty becomes unknown", raw: "", want: "UNKNOWN"},
		{name: "whitespace only becomes unknown", raw: "   ", want: "UNKNOWN"},
		{name: "suffix word inside name is still dropped", raw: "Co Op Partners", want: "OP PARTNERS"},
		{name: "already canonical", raw: "GOOGLE", want: "GOOGLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.raw))
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	for _, raw := range []string{"Acme, Inc.", "smith & wesson co.", "", "3M Company"} {
		once := NormalizeName(raw)
		assert.Equal(t, once, NormalizeName(once), "normalizing %q twice changed the result", raw)
	}
}

func TestEmployerHash(t *testing.T) {
	t.Run("variants collapse to one hash", func(t *testing.T) {
		a := EmployerHash(NormalizeName("Acme, Inc."))
		b := EmployerHash(NormalizeName("ACME INC"))
		c := EmployerHash(NormalizeName("acme incorporated"))
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
	})

	t.Run("distinct names get distinct hashes", func(t *testing.T) {
		assert.NotEqual(t, EmployerHash("ACME"), EmployerHash("GOOGLE"))
	})

	t.Run("hash is hex sha256", func(t *testing.T) {
		assert.Len(t, EmployerHash("ACME"), 64)
	})
}

func TestClassify(t *testing.T) {
	classifier := NewClassifier(DefaultKeywordRules)

	tests := []struct {
		name       string
		employer   string
		occupation string
		wantCode   string
	}{
		{name: "software employer", employer: "Initech Software", occupation: "", wantCode: "TECH"},
		{name: "occupation match", employer: "Self", occupation: "software engineer", wantCode: "TECH"},
		{name: "bank", employer: "First National Bank", occupation: "teller", wantCode: "FIN"},
		{name: "construction", employer: "Bechtel Construction", occupation: "", wantCode: "CONS"},
		{name: "education", employer: "Board of Education", occupation: "teacher", wantCode: "EDU"},
		{name: "case insensitive", employer: "BIGTECH HOLDINGS", occupation: "", wantCode: "TECH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := classifier.Classify(tt.employer, tt.occupation)
			require.NotNil(t, rule)
			assert.Equal(t, tt.wantCode, rule.Code)
		})
	}

	t.Run("earlier rule wins on overlap", func(t *testing.T) {
		rule := classifier.Classify("Fintech Software Bank", "")
		require.NotNil(t, rule)
		assert.Equal(t, "TECH", rule.Code)
	})

	t.Run("no match returns nil", func(t *testing.T) {
		assert.Nil(t, classifier.Classify("Roadside Diner", "cook"))
	})
}

func TestIndustries(t *testing.T) {
	rows := NewClassifier(DefaultKeywordRules).Industries()
	require.Len(t, rows, 4)
	assert.Equal(t, "TECH", rows[0].Code)
	assert.Equal(t, "Public Sector", rows[3].Sector)
}
