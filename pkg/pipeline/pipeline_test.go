package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooljasonmelton/follow-the-money/pkg/normalize"
)

func TestBuildCandidate(t *testing.T) {
	t.Run("maps all fields", func(t *testing.T) {
		req := buildCandidate(map[string]any{
			"fec_id":        "H0CA01234",
			"name":          "DOE, JANE",
			"party":         "dem",
			"office":        "H",
			"state":         "CA",
			"district":      "12",
			"election_year": "2024",
			"created_at":    "2024-01-15T10:30:00Z",
		})
		require.NotNil(t, req)
		assert.Equal(t, "H0CA01234", req.FECCandidateID)
		assert.Equal(t, "DOE, JANE", *req.Name)
		assert.Equal(t, "DEM", *req.Party)
		assert.Equal(t, 2024, *req.ElectionYear)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), *req.CreatedAt)
	})

	t.Run("accepts candidate_id alias", func(t *testing.T) {
		req := buildCandidate(map[string]any{"candidate_id": "S4TX00100"})
		require.NotNil(t, req)
		assert.Equal(t, "S4TX00100", req.FECCandidateID)
	})

	t.Run("nil without any id", func(t *testing.T) {
		assert.Nil(t, buildCandidate(map[string]any{"name": "DOE, JANE"}))
	})
}

func TestBuildCommittee(t *testing.T) {
	t.Run("maps fields and linked candidate", func(t *testing.T) {
		req, cand := buildCommittee(map[string]any{
			"committee_id":   "C00123456",
			"committee_name": "FRIENDS OF JANE",
			"committee_type": "H",
			"party":          "rep",
			"cand_id":        "H0CA01234",
		})
		require.NotNil(t, req)
		assert.Equal(t, "C00123456", req.FECCommitteeID)
		assert.Equal(t, "FRIENDS OF JANE", *req.Name)
		assert.Equal(t, "REP", *req.Party)
		require.NotNil(t, cand)
		assert.Equal(t, "H0CA01234", *cand)
	})

	t.Run("name alias falls back", func(t *testing.T) {
		req, _ := buildCommittee(map[string]any{"fec_id": "C00123456", "name": "FRIENDS OF JANE"})
		require.NotNil(t, req)
		assert.Equal(t, "FRIENDS OF JANE", *req.Name)
	})

	t.Run("no linked candidate", func(t *testing.T) {
		req, cand := buildCommittee(map[string]any{"fec_id": "C00123456"})
		require.NotNil(t, req)
		assert.Nil(t, cand)
	})

	t.Run("nil without any id", func(t *testing.T) {
		req, _ := buildCommittee(map[string]any{"name": "FRIENDS OF JANE"})
		assert.Nil(t, req)
	})
}

func TestBuildContribution(t *testing.T) {
	classifier := normalize.NewClassifier(normalize.DefaultKeywordRules)

	t.Run("maps a full receipt", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{
			"fec_record_id":    "SA11AI123",
			"cand_id":          "H0CA01234",
			"cmte_id":          "C00123456",
			"employer":         "Initech Software, Inc.",
			"occupation":       "engineer",
			"amount":           "250.00",
			"transaction_date": "2024-03-15",
			"contributor_name": "DOE, JOHN",
			"receipt_type":     "15",
			"memo":             "EARMARKED",
		}, "run-1", classifier)
		require.Empty(t, reason)
		require.NotNil(t, built)

		assert.Equal(t, "SA11AI123", built.req.FECRecordID)
		assert.Equal(t, "run-1", built.req.IngestRunID)
		assert.Equal(t, int64(25000), built.req.AmountCents)
		assert.Equal(t, "H0CA01234", *built.candidateRef)
		assert.Equal(t, "C00123456", *built.committeeRef)
		assert.Equal(t, "INITECH SOFTWARE", built.employer.NormalizedName)
		assert.Equal(t, normalize.EmployerHash("INITECH SOFTWARE"), built.employer.EmployerHash)
		require.NotNil(t, built.req.IndustryCode)
		assert.Equal(t, "TECH", *built.req.IndustryCode)
		require.NotNil(t, built.req.TransactionDate)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *built.req.TransactionDate)
		assert.Equal(t, "15", *built.req.ReceiptType)
		assert.Equal(t, "EARMARKED", *built.req.Memo)
	})

	t.Run("missing record id skips", func(t *testing.T) {
		_, reason := buildContribution(map[string]any{"amount": "10.00"}, "run-1", classifier)
		assert.Equal(t, reasonMissingID, reason)
	})

	t.Run("bad amount defaults to zero", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{
			"transaction_id": "SA11AI123",
			"amount":         "not-money",
		}, "run-1", classifier)
		require.Empty(t, reason)
		assert.Equal(t, int64(0), built.req.AmountCents)
	})

	t.Run("missing amount defaults to zero", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{"transaction_id": "SA11AI123"}, "run-1", classifier)
		require.Empty(t, reason)
		assert.Equal(t, int64(0), built.req.AmountCents)
	})

	t.Run("cycle prefers the payload field", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{
			"transaction_id":   "SA11AI123",
			"amount":           "5",
			"cycle":            "2022",
			"transaction_date": "2024-03-15",
		}, "run-1", classifier)
		require.Empty(t, reason)
		require.NotNil(t, built.req.Cycle)
		assert.Equal(t, 2022, *built.req.Cycle)
	})

	t.Run("cycle falls back to the transaction year", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{
			"transaction_id":   "SA11AI123",
			"amount":           "5",
			"transaction_date": "2024-03-15",
		}, "run-1", classifier)
		require.Empty(t, reason)
		require.NotNil(t, built.req.Cycle)
		assert.Equal(t, 2024, *built.req.Cycle)
	})

	t.Run("cycle nil without field or date", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{
			"transaction_id": "SA11AI123",
			"amount":         "5",
		}, "run-1", classifier)
		require.Empty(t, reason)
		assert.Nil(t, built.req.Cycle)
	})

	t.Run("classifies the canonical employer name", func(t *testing.T) {
		rules := []normalize.KeywordRule{
			{Keywords: []string{"acme systems"}, Code: "MFG", Name: "Manufacturing", Sector: "Industrials"},
		}
		built, reason := buildContribution(map[string]any{
			"transaction_id": "SA11AI123",
			"amount":         "5",
			"employer":       "Acme-Systems, Inc.",
		}, "run-1", normalize.NewClassifier(rules))
		require.Empty(t, reason)
		assert.Equal(t, "ACME SYSTEMS", built.employer.NormalizedName)
		require.NotNil(t, built.req.IndustryCode)
		assert.Equal(t, "MFG", *built.req.IndustryCode)
	})

	t.Run("empty employer degrades to unknown", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{
			"transaction_id": "SA11AI123",
			"amount":         50.0,
		}, "run-1", classifier)
		require.Empty(t, reason)
		assert.Equal(t, "UNKNOWN", built.employer.NormalizedName)
		assert.Nil(t, built.employer.RawName)
		assert.Nil(t, built.req.IndustryCode)
	})

	t.Run("unparseable date degrades to nil", func(t *testing.T) {
		built, reason := buildContribution(map[string]any{
			"transaction_id":   "SA11AI123",
			"amount":           "5",
			"transaction_date": "??",
		}, "run-1", classifier)
		require.Empty(t, reason)
		assert.Nil(t, built.req.TransactionDate)
	})
}
