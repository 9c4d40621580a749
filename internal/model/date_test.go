package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-11-15")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.November, 15), d)

	_, err = ParseDate("15/11/2024")
	assert.Error(t, err)
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "2024-01-05", NewDate(2024, time.January, 5).String())
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.March, 1)

	assert.Equal(t, NewDate(2024, time.February, 29), d.AddDays(-1), "2024 is a leap year")
	assert.Equal(t, NewDate(2024, time.March, 31), d.AddDays(30))
	assert.Equal(t, NewDate(2023, time.March, 1), d.AddYears(-1))

	assert.Equal(t, 30, d.DaysUntil(NewDate(2024, time.March, 31)))
	assert.Equal(t, -1, d.DaysUntil(NewDate(2024, time.February, 29)))
}

func TestDateOrdering(t *testing.T) {
	early := NewDate(2024, time.May, 1)
	late := NewDate(2024, time.May, 2)

	assert.True(t, early.Before(late))
	assert.True(t, late.After(early))
	assert.False(t, early.Before(early))
	assert.False(t, early.After(early))
}

func TestDateAsMapKey(t *testing.T) {
	m := map[Date]int{}
	m[NewDate(2024, time.June, 1)]++
	m[NewDate(2024, time.June, 1)]++
	assert.Equal(t, 2, m[NewDate(2024, time.June, 1)])
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.November, 15)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-11-15"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, d, parsed)
}

func TestDateWeekday(t *testing.T) {
	// 2024-11-15 was a Friday.
	assert.Equal(t, time.Friday, NewDate(2024, time.November, 15).Weekday())
}
