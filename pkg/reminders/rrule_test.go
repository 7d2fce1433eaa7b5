package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formatAll(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format(time.RFC3339)
	}
	return out
}

func TestTriggerRRule(t *testing.T) {
	wd := time.Monday
	assert.Equal(t, "FREQ=DAILY;BYHOUR=9;BYMINUTE=30;BYSECOND=0",
		TriggerSpec{Kind: TriggerRecurring, Repeat: RepeatDaily, Hour: 9, Minute: 30}.RRule())
	assert.Equal(t, "FREQ=WEEKLY;BYHOUR=7;BYMINUTE=0;BYSECOND=0;BYDAY=MO",
		TriggerSpec{Kind: TriggerRecurring, Repeat: RepeatWeekly, Hour: 7, Weekday: &wd}.RRule())
	assert.Equal(t, "FREQ=MONTHLY;BYHOUR=7;BYMINUTE=0;BYSECOND=0;BYMONTHDAY=31",
		TriggerSpec{Kind: TriggerRecurring, Repeat: RepeatMonthly, Hour: 7, DayOfMonth: 31}.RRule())
	assert.Empty(t, TriggerSpec{Kind: TriggerOnce, FireAt: testNow}.RRule())
}

func TestOccurrencesDaily(t *testing.T) {
	spec := TriggerSpec{Kind: TriggerRecurring, Repeat: RepeatDaily, Hour: 9, Minute: 30}
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	got, err := spec.Occurrences(now, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-11T09:30:00Z",
		"2025-03-12T09:30:00Z",
		"2025-03-13T09:30:00Z",
	}, formatAll(got))
}

func TestOccurrencesWeekly(t *testing.T) {
	wd := time.Monday
	spec := TriggerSpec{Kind: TriggerRecurring, Repeat: RepeatWeekly, Hour: 9, Weekday: &wd}
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	got, err := spec.Occurrences(now, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10T09:00:00Z", "2025-03-17T09:00:00Z"}, formatAll(got))
}

func TestOccurrencesMonthlySkipsShortMonths(t *testing.T) {
	spec := TriggerSpec{Kind: TriggerRecurring, Repeat: RepeatMonthly, Hour: 8, DayOfMonth: 31}
	now := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

	got, err := spec.Occurrences(now, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-01-31T08:00:00Z",
		"2025-03-31T08:00:00Z",
		"2025-05-31T08:00:00Z",
	}, formatAll(got))
}

func TestOccurrencesOnce(t *testing.T) {
	spec := TriggerSpec{Kind: TriggerOnce, FireAt: testNow.Add(time.Hour)}

	got, err := spec.Occurrences(testNow, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = spec.Occurrences(testNow.Add(2*time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
