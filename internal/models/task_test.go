package models

import (
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
		{in: "09:00:00", want: TimeOfDay{Hour: 9}},
		{in: "23:59:59", want: TimeOfDay{Hour: 23, Minute: 59, Second: 59}},
		{in: "7:5:3", want: TimeOfDay{Hour: 7, Minute: 5, Second: 3}},
		{in: "24:00:00", wantErr: true},
		{in: "09:60:00", wantErr: true},
		{in: "09:00", wantErr: true},
		{in: "aa:00:00", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_StringPadsFields(t *testing.T) {
	assert.Equal(t, "07:05:03", TimeOfDay{Hour: 7, Minute: 5, Second: 3}.String())
}

func TestDayMask_HasAndDays(t *testing.T) {
	// Arrange
	mask, err := NewDayMask(0, 3, 6)
	require.NoError(t, err)

	// Act & Assert
	assert.True(t, mask.Has(time.Sunday))
	assert.True(t, mask.Has(time.Wednesday))
	assert.True(t, mask.Has(time.Saturday))
	assert.False(t, mask.Has(time.Monday))
	assert.Equal(t, []int{0, 3, 6}, mask.Days())
	assert.Equal(t, "0,3,6", mask.String())
}

func TestDayMask_EmptyAllowsEveryDay(t *testing.T) {
	var mask DayMask
	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.True(t, mask.Has(d))
	}
	assert.True(t, mask.Empty())
}

func TestParseDayMask(t *testing.T) {
	mask, err := ParseDayMask("1, 3,5")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, mask.Days())

	_, err = ParseDayMask("7")
	assert.Error(t, err)

	_, err = ParseDayMask("1,,2")
	assert.Error(t, err)

	empty, err := ParseDayMask("  ")
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestDayMask_ValidRejectsHighBit(t *testing.T) {
	assert.True(t, DayMask(0x7F).Valid())
	assert.False(t, DayMask(0x80).Valid())
}

func TestTask_AcceptsEvent(t *testing.T) {
	all := Task{}
	pushOnly := Task{EventTypes: []string{"push"}}

	assert.True(t, all.AcceptsEvent("release"))
	assert.True(t, pushOnly.AcceptsEvent("push"))
	assert.False(t, pushOnly.AcceptsEvent("release"))
}

func TestTaskKind_Calendar(t *testing.T) {
	assert.True(t, TaskKindStatic.Calendar())
	assert.True(t, TaskKindNewsDigest.Calendar())
	assert.True(t, TaskKindLLMCompletion.Calendar())
	assert.False(t, TaskKindRepoEvent.Calendar())
	assert.True(t, TaskKindRepoEvent.Valid())
	assert.False(t, TaskKind("webhook").Valid())
}
