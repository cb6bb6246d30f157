package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstString(t *testing.T) {
	t.Run("returns first matching alias", func(t *testing.T) {
		data := map[string]any{"fec_id": "H0CA01234", "candidate_id": "OTHER"}
		got := FirstString(data, CandidateIDAliases...)
		require.NotNil(t, got)
		assert.Equal(t, "H0CA01234", *got)
	})

	t.Run("falls through empty values", func(t *testing.T) {
		data := map[string]any{"fec_id": "   ", "candidate_id": "H0CA01234"}
		got := FirstString(data, CandidateIDAliases...)
		require.NotNil(t, got)
		assert.Equal(t, "H0CA01234", *got)
	})

	t.Run("nil when no alias present", func(t *testing.T) {
		got := FirstString(map[string]any{"other": "x"}, CandidateIDAliases...)
		assert.Nil(t, got)
	})

	t.Run("stringifies non-string values", func(t *testing.T) {
		got := FirstString(map[string]any{"committee_id": 12345.0}, ReceiptCommitteeAliases...)
		require.NotNil(t, got)
		assert.Equal(t, "12345", *got)
	})
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int64
		wantErr bool
	}{
		{name: "string with cents", raw: "1234.56", want: 123456},
		{name: "string whole dollars", raw: "500", want: 50000},
		{name: "string one decimal place", raw: "12.5", want: 1250},
		{name: "negative refund", raw: "-25.00", want: -2500},
		{name: "float from json", raw: 1234.56, want: 123456},
		{name: "zero", raw: "0", want: 0},
		{name: "sub-cent precision", raw: "1.234", wantErr: true},
		{name: "empty string", raw: "", wantErr: true},
		{name: "garbage", raw: "abc", wantErr: true},
		{name: "nil", raw: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("iso date", func(t *testing.T) {
		got := ParseDate(map[string]any{"transaction_date": "2024-03-15"}, "transaction_date")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("us slash format", func(t *testing.T) {
		got := ParseDate(map[string]any{"transaction_date": "03/15/2024"}, "transaction_date")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("unparseable returns nil", func(t *testing.T) {
		got := ParseDate(map[string]any{"transaction_date": "not-a-date"}, "transaction_date")
		assert.Nil(t, got)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		got := ParseDate(map[string]any{}, "transaction_date")
		assert.Nil(t, got)
	})
}
