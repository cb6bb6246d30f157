package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

func TestDriftFor(t *testing.T) {
	tests := []struct {
		name       string
		staged     int
		normalized int
		want       float64
	}{
		{name: "nothing dropped", staged: 100, normalized: 100, want: 0.0},
		{name: "half dropped", staged: 100, normalized: 50, want: 0.5},
		{name: "all dropped", staged: 100, normalized: 0, want: 1.0},
		{name: "empty staging", staged: 0, normalized: 0, want: 0.0},
		{name: "empty staging with rows landed", staged: 0, normalized: 5, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, driftFor(tt.staged, tt.normalized))
		})
	}
}

func TestNegativeCandidateTotals(t *testing.T) {
	t.Run("all non-negative", func(t *testing.T) {
		totals := []models.CandidateTotal{
			{FECCandidateID: "H0CA01234", TotalCents: 25000},
			{FECCandidateID: "S4TX00100", TotalCents: 0},
		}
		assert.Empty(t, negativeCandidateTotals(totals))
	})

	t.Run("flags every negative candidate", func(t *testing.T) {
		totals := []models.CandidateTotal{
			{FECCandidateID: "H0CA01234", TotalCents: -5000},
			{FECCandidateID: "S4TX00100", TotalCents: 10000},
			{FECCandidateID: "P80001571", TotalCents: -1},
		}
		assert.Equal(t, []string{"H0CA01234", "P80001571"}, negativeCandidateTotals(totals))
	})

	t.Run("empty totals", func(t *testing.T) {
		assert.Empty(t, negativeCandidateTotals(nil))
	})
}
