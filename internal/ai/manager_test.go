package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dianehq/diane/internal/model"
)

func TestParseQueryParamsFencedJSON(t *testing.T) {
	output := "```json\n{\"query_type\": \"Count\", \"keywords\": [\"pizza\"], \"date_filters\": [\"June 2023\"], \"time_range\": null, \"count_request\": true}\n```"
	params, err := ParseQueryParams(output)
	require.NoError(t, err)
	assert.Equal(t, model.IntentCount, params.Intent)
	assert.Equal(t, []string{"pizza"}, params.Keywords)
	assert.Equal(t, []string{"June 2023"}, params.DateFilters)
	assert.True(t, params.CountRequest)
}

func TestParseQueryParamsSurroundingProse(t *testing.T) {
	output := "Here is the analysis you asked for:\n{\"query_type\": \"recall\", \"keywords\": [\"doctor\"]}\nLet me know if you need more."
	params, err := ParseQueryParams(output)
	require.NoError(t, err)
	assert.Equal(t, model.IntentRecall, params.Intent)
}

func TestParseQueryParamsUnknownIntent(t *testing.T) {
	params, err := ParseQueryParams(`{"query_type": "banana"}`)
	require.NoError(t, err)
	assert.Equal(t, model.IntentGeneral, params.Intent)
}

func TestParseQueryParamsCountRequestPromotesIntent(t *testing.T) {
	params, err := ParseQueryParams(`{"query_type": "general", "count_request": true}`)
	require.NoError(t, err)
	assert.Equal(t, model.IntentCount, params.Intent)
}

func TestParseQueryParamsNoJSON(t *testing.T) {
	_, err := ParseQueryParams("I could not parse that question.")
	assert.Error(t, err)
}

func TestParseStringList(t *testing.T) {
	items, err := parseStringList("```json\n[\"Pizza\", \"pizza\", \" Doctor \", \"\"]\n```", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza", "doctor"}, items)

	items, err = parseStringList(`["a", "b", "c"]`, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = parseStringList("[]", 5)
	assert.Error(t, err)
}
