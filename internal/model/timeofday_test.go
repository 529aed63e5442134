package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "06:00", want: TimeOfDay{Hour: 6}},
		{in: "23:59", want: TimeOfDay{Hour: 23, Minute: 59}},
		{in: "00:00", want: TimeOfDay{}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTimeOfDay, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNextOccurrenceBeforeResetTime(t *testing.T) {
	// 05:00, both reset times still ahead today; 06:00 is the nearer one.
	now := time.Date(2026, 9, 1, 5, 0, 0, 0, time.UTC)

	at0600 := MustTimeOfDay("06:00").NextOccurrence(now)
	at1800 := MustTimeOfDay("18:00").NextOccurrence(now)

	assert.Equal(t, time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC), at0600)
	assert.Equal(t, time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC), at1800)
	assert.True(t, at0600.Before(at1800))
}

func TestNextOccurrenceRollsToTomorrow(t *testing.T) {
	// 19:00, both reset times already passed today.
	now := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 9, 2, 6, 0, 0, 0, time.UTC),
		MustTimeOfDay("06:00").NextOccurrence(now))
	assert.Equal(t, time.Date(2026, 9, 2, 18, 0, 0, 0, time.UTC),
		MustTimeOfDay("18:00").NextOccurrence(now))
}

func TestNextOccurrenceExactMatchStaysToday(t *testing.T) {
	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, now, MustTimeOfDay("06:00").NextOccurrence(now))
}

func TestNextOccurrenceMinus(t *testing.T) {
	tod := MustTimeOfDay("06:00")

	t.Run("zero lead never schedules", func(t *testing.T) {
		now := time.Date(2026, 9, 1, 5, 0, 0, 0, time.UTC)
		_, ok := tod.NextOccurrenceMinus(0, now)
		assert.False(t, ok)
	})

	t.Run("lead point still ahead today", func(t *testing.T) {
		now := time.Date(2026, 9, 1, 5, 0, 0, 0, time.UTC)
		at, ok := tod.NextOccurrenceMinus(5, now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 9, 1, 5, 55, 0, 0, time.UTC), at)
	})

	t.Run("lead point for today already elapsed", func(t *testing.T) {
		// 05:56: tonight's reset still fires at 06:00, so there is no
		// valid slot for the 5-minute reminder.
		now := time.Date(2026, 9, 1, 5, 56, 0, 0, time.UTC)
		_, ok := tod.NextOccurrenceMinus(5, now)
		assert.False(t, ok)
	})

	t.Run("reset already rolled to tomorrow", func(t *testing.T) {
		now := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
		at, ok := tod.NextOccurrenceMinus(5, now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 9, 2, 5, 55, 0, 0, time.UTC), at)
	})

	t.Run("lead crosses midnight backwards", func(t *testing.T) {
		shortlyPastMidnight := MustTimeOfDay("00:05")
		now := time.Date(2026, 9, 1, 22, 0, 0, 0, time.UTC)
		at, ok := shortlyPastMidnight.NextOccurrenceMinus(10, now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 9, 1, 23, 55, 0, 0, time.UTC), at)
	})
}

func TestTimeOfDayJSON(t *testing.T) {
	raw, err := json.Marshal(MustTimeOfDay("06:30"))
	require.NoError(t, err)
	assert.Equal(t, `"06:30"`, string(raw))

	var back TimeOfDay
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, MustTimeOfDay("06:30"), back)

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &back))
	assert.Error(t, json.Unmarshal([]byte(`42`), &back))
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", d.String())
	assert.Equal(t, "20260310", d.Compact())

	_, err = ParseDate("10.03.2026")
	assert.ErrorIs(t, err, ErrInvalidDate)

	at := d.At(MustTimeOfDay("21:30"), time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC), at)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-10"`, string(raw))
	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)
}
