package reminders

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		repeat Repeat
		want   string
	}{
		{name: "daily", date: "2025-03-10", repeat: RepeatDaily, want: "2025-03-11"},
		{name: "daily across month end", date: "2025-02-28", repeat: RepeatDaily, want: "2025-03-01"},
		{name: "daily across year end", date: "2025-12-31", repeat: RepeatDaily, want: "2026-01-01"},
		{name: "weekly", date: "2025-03-10", repeat: RepeatWeekly, want: "2025-03-17"},
		{name: "weekly across month end", date: "2025-03-28", repeat: RepeatWeekly, want: "2025-04-04"},
		{name: "monthly", date: "2025-03-10", repeat: RepeatMonthly, want: "2025-04-10"},
		{name: "monthly clamps to february", date: "2025-01-31", repeat: RepeatMonthly, want: "2025-02-28"},
		{name: "monthly clamps to leap february", date: "2024-01-31", repeat: RepeatMonthly, want: "2024-02-29"},
		{name: "monthly clamps to 30 day month", date: "2025-03-31", repeat: RepeatMonthly, want: "2025-04-30"},
		{name: "monthly across year end", date: "2025-12-15", repeat: RepeatMonthly, want: "2026-01-15"},
		{name: "none is identity", date: "2025-03-10", repeat: RepeatNone, want: "2025-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.date, tt.repeat)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOccurrenceInvalidDate(t *testing.T) {
	_, err := NextOccurrence("2025-02-30", RepeatDaily)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "date", ve.Field)
}

func TestParseRepeat(t *testing.T) {
	r, err := ParseRepeat("")
	require.NoError(t, err)
	assert.Equal(t, RepeatNone, r)

	r, err = ParseRepeat("weekly")
	require.NoError(t, err)
	assert.Equal(t, RepeatWeekly, r)

	_, err = ParseRepeat("yearly")
	assert.Error(t, err)
}

func TestRepeatUnmarshalJSON(t *testing.T) {
	var f Fields
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","repeat":null}`), &f))
	assert.Equal(t, RepeatNone, f.Repeat)

	require.NoError(t, json.Unmarshal([]byte(`{"repeat":"monthly"}`), &f))
	assert.Equal(t, RepeatMonthly, f.Repeat)

	assert.Error(t, json.Unmarshal([]byte(`{"repeat":"hourly"}`), &f))
}
