package reminders

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() Fields {
	return Fields{
		Title:  "Take vitamins",
		Date:   "2025-03-10",
		Time:   "09:30",
		Repeat: RepeatDaily,
		UserID: "user-1",
	}
}

func TestFieldsValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Fields)
		field string
	}{
		{name: "valid", edit: func(*Fields) {}},
		{name: "empty title", edit: func(f *Fields) { f.Title = "" }, field: "title"},
		{name: "bad date", edit: func(f *Fields) { f.Date = "10/03/2025" }, field: "date"},
		{name: "impossible date", edit: func(f *Fields) { f.Date = "2025-02-29" }, field: "date"},
		{name: "short date", edit: func(f *Fields) { f.Date = "2025-3-1" }, field: "date"},
		{name: "hour out of range", edit: func(f *Fields) { f.Time = "24:00" }, field: "time"},
		{name: "single digit hour", edit: func(f *Fields) { f.Time = "9:30" }, field: "time"},
		{name: "seconds", edit: func(f *Fields) { f.Time = "09:30:00" }, field: "time"},
		{name: "unknown repeat", edit: func(f *Fields) { f.Repeat = "yearly" }, field: "repeat"},
		{name: "no user", edit: func(f *Fields) { f.UserID = "" }, field: "userId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.edit(&f)
			err := f.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestFieldsNormalize(t *testing.T) {
	f := Fields{Title: "  Walk  ", Description: " outside ", Date: " 2025-03-10", Time: "07:00 ", UserID: " u "}.Normalize()
	assert.Equal(t, "Walk", f.Title)
	assert.Equal(t, "outside", f.Description)
	assert.Equal(t, "2025-03-10", f.Date)
	assert.Equal(t, "07:00", f.Time)
	assert.Equal(t, "u", f.UserID)
	assert.Equal(t, RepeatNone, f.Repeat)
}

func TestTriggerTime(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	got, err := TriggerTime("2025-03-10", "21:45", loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10T21:45:00-03:00", got.Format(time.RFC3339))
	assert.Equal(t, "2025-03-11T00:45:00Z", got.UTC().Format(time.RFC3339))

	_, err = TriggerTime("2025-03-10", "7:5", loc)
	assert.Error(t, err)
}

func TestReminderApply(t *testing.T) {
	r := Reminder{ID: "a", Title: "Walk", Date: "2025-03-10", Time: "07:00", Repeat: RepeatNone, UserID: "u"}

	title := "  Run "
	out, changed := r.Apply(Patch{Title: &title})
	assert.False(t, changed)
	assert.Equal(t, "Run", out.Title)

	hm := "08:00"
	out, changed = r.Apply(Patch{Time: &hm})
	assert.True(t, changed)
	assert.Equal(t, "08:00", out.Time)

	same := "07:00"
	_, changed = r.Apply(Patch{Time: &same})
	assert.False(t, changed)

	rep := RepeatWeekly
	_, changed = r.Apply(Patch{Repeat: &rep})
	assert.True(t, changed)
}

func TestReminderBody(t *testing.T) {
	assert.Equal(t, "Walk", Reminder{Title: "Walk"}.Body())
	assert.Equal(t, "Walk — 30 minutes", Reminder{Title: "Walk", Description: "30 minutes"}.Body())
}
