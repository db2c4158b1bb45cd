package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierUpgradeRule_Definition(t *testing.T) {
	minOrders := 5
	minValue := int64(20000)
	cohort := "VIP"

	rule := TierUpgradeRule{
		RuleName:             "silver-to-platinum",
		SourceTierLevel:      1,
		TargetTierLevel:      3,
		MinOrdersRequired:    &minOrders,
		MinMonthlyOrderValue: &minValue,
		CohortRestriction:    &cohort,
		AutoUpgrade:          false,
		Active:               true,
	}

	def := rule.Definition()
	require.Len(t, def.Criteria, 3)
	assert.Equal(t, CriteriaOrderCount, def.Criteria[0].Type)
	assert.Equal(t, 5, def.Criteria[0].Value)
	assert.Equal(t, CriteriaMonthlyOrderValue, def.Criteria[1].Type)
	assert.Equal(t, int64(20000), def.Criteria[1].Value)
	assert.Equal(t, CriteriaUserCohort, def.Criteria[2].Type)
	assert.Equal(t, "VIP", def.Criteria[2].Value)
	for _, c := range def.Criteria {
		assert.Equal(t, "AND", c.LogicalCondition)
	}
}

func TestTierUpgradeRule_Definition_NilThresholdsOmitted(t *testing.T) {
	minOrders := 5
	rule := TierUpgradeRule{
		RuleName:          "orders-only",
		SourceTierLevel:   1,
		TargetTierLevel:   2,
		MinOrdersRequired: &minOrders,
	}

	def := rule.Definition()
	require.Len(t, def.Criteria, 1)
	assert.Equal(t, CriteriaOrderCount, def.Criteria[0].Type)

	empty := TierUpgradeRule{RuleName: "no-thresholds"}
	assert.Empty(t, empty.Definition().Criteria)
}
