package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsMinimalPlan(t *testing.T) {
	res := Validate(decode(t, `{"content":{"company_summary":{"activities":"Robotics","target":"Factories"}}}`), "acme.com")
	assert.True(t, res.IsValid)
	require.NotNil(t, res.Data)
	assert.Empty(t, res.Errors)
}

func TestValidate_SynonymSatisfiesRule(t *testing.T) {
	res := Validate(decode(t, `{"content":{"company_summary":{"industry":"Fintech","target_audience":"CFOs"}}}`), "")
	assert.True(t, res.IsValid)
}

func TestValidate_AccumulatesAllContentErrors(t *testing.T) {
	res := Validate(decode(t, `{"content":{"company_summary":{"name":"Acme"}}}`), "acme.com")
	assert.False(t, res.IsValid)
	assert.Nil(t, res.Data)
	require.Len(t, res.Errors, 2, "both missing-activities and missing-target must be reported")

	fields := []string{res.Errors[0].Field, res.Errors[1].Field}
	assert.Contains(t, fields, "activities")
	assert.Contains(t, fields, "target")
}

func TestValidate_PlaceholderSentinelIsNotContent(t *testing.T) {
	res := Validate(decode(t, `{"content":{"company_summary":{"activities":"Not specified","industry":"Not specified","target":"Retailers"}}}`), "")
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "activities", res.Errors[0].Field)
}

func TestValidate_ParseFailureReportedUnderParsingField(t *testing.T) {
	res := Validate("not json at all", "acme.com")
	assert.False(t, res.IsValid)
	assert.Nil(t, res.Data)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "parsing", res.Errors[0].Field)
	assert.NotEmpty(t, res.Errors[0].Message)
}
