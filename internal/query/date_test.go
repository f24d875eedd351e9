package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 15, 14, 30, 0, 0, time.UTC)

func TestParseNaturalDateRelative(t *testing.T) {
	r, ok := ParseNaturalDate("today", testNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), r.Start)
	assert.False(t, r.IsRange)

	r, ok = ParseNaturalDate("Yesterday", testNow)
	require.True(t, ok)
	assert.Equal(t, 14, r.Start.Day())

	r, ok = ParseNaturalDate("last week", testNow)
	require.True(t, ok)
	assert.True(t, r.IsRange)
	assert.Equal(t, time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC), r.Start)
	assert.True(t, r.End.After(testNow))
}

func TestParseNaturalDateExplicit(t *testing.T) {
	for _, input := range []string{"October 5, 2023", "Oct 5, 2023", "2023-10-05", "10/05/2023"} {
		r, ok := ParseNaturalDate(input, testNow)
		require.True(t, ok, input)
		assert.Equal(t, 2023, r.Start.Year(), input)
		assert.Equal(t, time.October, r.Start.Month(), input)
		assert.Equal(t, 5, r.Start.Day(), input)
		assert.False(t, r.IsRange, input)
	}
}

func TestParseNaturalDateMonthAndYear(t *testing.T) {
	r, ok := ParseNaturalDate("june 2023", testNow)
	require.True(t, ok)
	assert.True(t, r.IsRange)
	assert.Equal(t, time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, 30, r.End.Day())

	// bare month resolves to the current year
	r, ok = ParseNaturalDate("march", testNow)
	require.True(t, ok)
	assert.Equal(t, 2024, r.Start.Year())
	assert.Equal(t, time.March, r.Start.Month())

	r, ok = ParseNaturalDate("in 2023", testNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, 2023, r.End.Year())
	assert.Equal(t, time.December, r.End.Month())
}

func TestParseNaturalDateUnparseable(t *testing.T) {
	for _, input := range []string{"", "whenever", "the other day", "12345"} {
		_, ok := ParseNaturalDate(input, testNow)
		assert.False(t, ok, input)
	}
}

func TestResolveFiltersDedup(t *testing.T) {
	ranges := ResolveFilters([]string{"June 5, 2024", "2024-06-05", "nonsense"}, "last week", testNow)
	require.Len(t, ranges, 2)
	assert.Equal(t, 5, ranges[0].Start.Day())
	assert.True(t, ranges[1].IsRange)
}

func TestDescribe(t *testing.T) {
	r, ok := ParseNaturalDate("October 5, 2023", testNow)
	require.True(t, ok)
	assert.Equal(t, "October 5, 2023", Describe(r))

	r, ok = ParseNaturalDate("June 2023", testNow)
	require.True(t, ok)
	assert.Equal(t, "June 1 - 30, 2023", Describe(r))

	assert.Equal(t, "all time", DescribeAll(nil))
}
