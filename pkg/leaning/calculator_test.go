package leaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

func strPtr(s string) *string { return &s }

func row(candID, cmteID, empHash, indCode, party string, cents int64) models.ContributionWindowRow {
	r := models.ContributionWindowRow{AmountCents: cents}
	if candID != "" {
		r.FECCandidateID = strPtr(candID)
	}
	if cmteID != "" {
		r.FECCommitteeID = strPtr(cmteID)
	}
	if empHash != "" {
		r.EmployerHash = strPtr(empHash)
	}
	if indCode != "" {
		r.IndustryCode = strPtr(indCode)
	}
	if party != "" {
		r.CommitteeParty = strPtr(party)
	}
	return r
}

func findScore(t *testing.T, scores []models.LeaningScore, entityType, entityKey string) models.LeaningScore {
	t.Helper()
	for _, s := range scores {
		if s.EntityType == entityType && s.EntityKey == entityKey {
			return s
		}
	}
	t.Fatalf("no score for %s/%s", entityType, entityKey)
	return models.LeaningScore{}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.5, Score(0, 0))
	assert.Equal(t, 1.0, Score(0, 10000))
	assert.Equal(t, 0.0, Score(10000, 0))
	assert.Equal(t, 0.667, Score(5000, 10000))
	assert.Equal(t, 0.333, Score(10000, 5000))
}

func TestAggregateFansOutAllDimensions(t *testing.T) {
	rows := []models.ContributionWindowRow{
		row("H0CA01", "C001", "hash1", "TECH", "REP", 10000),
	}

	scores := Aggregate(rows)
	require.Len(t, scores, 4)

	for _, want := range []struct{ entityType, entityKey string }{
		{models.LeaningEntityCandidate, "H0CA01"},
		{models.LeaningEntityCommittee, "C001"},
		{models.LeaningEntityEmployer, "hash1"},
		{models.LeaningEntityIndustry, "TECH"},
	} {
		s := findScore(t, scores, want.entityType, want.entityKey)
		assert.Equal(t, 1, s.SampleSize)
		assert.Equal(t, int64(0), s.LeftTotalCents)
		assert.Equal(t, int64(10000), s.RightTotalCents)
		assert.Equal(t, 1.0, s.Score)
	}
}

func TestAggregateSkipsMissingDimensions(t *testing.T) {
	rows := []models.ContributionWindowRow{
		row("", "C001", "", "", "DEM", 5000),
	}

	scores := Aggregate(rows)
	require.Len(t, scores, 1)
	assert.Equal(t, models.LeaningEntityCommittee, scores[0].EntityType)
	assert.Equal(t, 0.0, scores[0].Score)
}

func TestAggregateUnclassifiedPartyCountsSampleOnly(t *testing.T) {
	rows := []models.ContributionWindowRow{
		row("H0CA01", "", "", "", "REP", 10000),
		row("H0CA01", "", "", "", "IND", 99999),
		row("H0CA01", "", "", "", "", 42),
	}

	scores := Aggregate(rows)
	s := findScore(t, scores, models.LeaningEntityCandidate, "H0CA01")
	assert.Equal(t, 3, s.SampleSize)
	assert.Equal(t, int64(0), s.LeftTotalCents)
	assert.Equal(t, int64(10000), s.RightTotalCents)
	assert.Equal(t, 1.0, s.Score)
}

func TestAggregatePartyLabels(t *testing.T) {
	tests := []struct {
		party string
		want  float64
	}{
		{party: "DEM", want: 0.0},
		{party: "D", want: 0.0},
		{party: "DEMCRATIC", want: 0.0},
		{party: "DEMCRAT", want: 0.0},
		{party: "REP", want: 1.0},
		{party: "R", want: 1.0},
		{party: "REPUBLICAN", want: 1.0},
		{party: "GOP", want: 1.0},
		{party: "GRE", want: 0.5},
		{party: "Dem", want: 0.0},
		{party: "democrat", want: 0.5},
		{party: "rep", want: 1.0},
		{party: "Gop", want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.party, func(t *testing.T) {
			scores := Aggregate([]models.ContributionWindowRow{
				row("H0CA01", "", "", "", tt.party, 10000),
			})
			s := findScore(t, scores, models.LeaningEntityCandidate, "H0CA01")
			assert.Equal(t, tt.want, s.Score)
		})
	}
}

func TestAggregateMixedMoney(t *testing.T) {
	rows := []models.ContributionWindowRow{
		row("", "", "hash1", "", "DEM", 5000),
		row("", "", "hash1", "", "REP", 10000),
		row("", "", "hash1", "", "REP", 5000),
	}

	scores := Aggregate(rows)
	s := findScore(t, scores, models.LeaningEntityEmployer, "hash1")
	assert.Equal(t, 3, s.SampleSize)
	assert.Equal(t, int64(5000), s.LeftTotalCents)
	assert.Equal(t, int64(15000), s.RightTotalCents)
	assert.Equal(t, 0.75, s.Score)
}

func TestAggregateDeterministicOrder(t *testing.T) {
	rows := []models.ContributionWindowRow{
		row("H2", "C1", "", "", "REP", 100),
		row("H1", "C2", "", "", "DEM", 100),
	}

	first := Aggregate(rows)
	second := Aggregate(rows)
	assert.Equal(t, first, second)
	assert.Equal(t, models.LeaningEntityCandidate, first[0].EntityType)
	assert.Equal(t, "H1", first[0].EntityKey)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
