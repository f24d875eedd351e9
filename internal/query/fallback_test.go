package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dianehq/diane/internal/model"
)

func TestScanDatesSpecificFirst(t *testing.T) {
	dates := ScanDates("What happened on June 5, 2023 and also in March?")
	require.Len(t, dates, 2)
	assert.Equal(t, "June 5, 2023", dates[0])
	assert.Equal(t, "March", dates[1])
}

func TestScanDatesNoDoubleCount(t *testing.T) {
	// the month inside the full date must not surface on its own
	dates := ScanDates("remind me about October 12, 2023")
	require.Len(t, dates, 1)
	assert.Equal(t, "October 12, 2023", dates[0])
}

func TestScanDatesSkipsBareMay(t *testing.T) {
	dates := ScanDates("who may have visited yesterday")
	require.Len(t, dates, 1)
	assert.Equal(t, "yesterday", dates[0])
}

func TestHeuristicParseCount(t *testing.T) {
	params := HeuristicParse("How many times did I mention pizza last week?")
	assert.Equal(t, model.IntentCount, params.Intent)
	assert.True(t, params.CountRequest)
	assert.Equal(t, "last week", params.TimeRange)
	assert.Contains(t, params.Keywords, "pizza")
}

func TestHeuristicParseRecallOnDates(t *testing.T) {
	params := HeuristicParse("What did the doctor tell me on October 5, 2023?")
	assert.Equal(t, model.IntentRecall, params.Intent)
	require.Len(t, params.DateFilters, 1)
	assert.Equal(t, "October 5, 2023", params.DateFilters[0])
	assert.Contains(t, params.Keywords, "doctor")
}

func TestHeuristicParseInsight(t *testing.T) {
	params := HeuristicParse("What patterns do you see in my sleep habits?")
	assert.Equal(t, model.IntentInsight, params.Intent)
	assert.Contains(t, params.Keywords, "sleep")
}

func TestHeuristicParseGeneral(t *testing.T) {
	params := HeuristicParse("hello there")
	assert.Equal(t, model.IntentGeneral, params.Intent)
	assert.False(t, params.CountRequest)
	assert.Empty(t, params.DateFilters)
}
