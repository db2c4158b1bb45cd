package evaluation

import (
	"testing"

	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestOrderCountEvaluator(t *testing.T) {
	e := orderCountEvaluator{}
	require.True(t, e.CanHandle(tierupgradedomain.CriteriaOrderCount))
	require.False(t, e.CanHandle(tierupgradedomain.CriteriaUserCohort))

	ectx := tierupgradedomain.EvaluationContext{TotalOrderCount: 5}

	result := e.Evaluate(ectx, 5)
	assert.True(t, result.Passed)
	assert.Equal(t, "Criteria passed", result.Message)

	result = e.Evaluate(ectx, 6)
	assert.False(t, result.Passed)
	assert.Equal(t, "Criteria failed: Required: 6, Actual: 5", result.Message)
}

func TestOrderCountEvaluator_AcceptsJSONNumbers(t *testing.T) {
	e := orderCountEvaluator{}
	ectx := tierupgradedomain.EvaluationContext{TotalOrderCount: 10}

	// Thresholds decoded from JSON arrive as float64.
	result := e.Evaluate(ectx, float64(10))
	assert.True(t, result.Passed)
}

func TestOrderCountEvaluator_FractionalThresholdRejected(t *testing.T) {
	e := orderCountEvaluator{}
	ectx := tierupgradedomain.EvaluationContext{TotalOrderCount: 201}

	result := e.Evaluate(ectx, 200.9)
	assert.False(t, result.Passed)
	assert.Equal(t, "Invalid value type", result.ActualValue)
	assert.Equal(t, "Criteria failed: Criteria value must be a number", result.Message)
}

func TestOrderCountEvaluator_InvalidValueType(t *testing.T) {
	e := orderCountEvaluator{}
	result := e.Evaluate(tierupgradedomain.EvaluationContext{}, "ten")

	assert.False(t, result.Passed)
	assert.Equal(t, "Invalid value type", result.ActualValue)
	assert.Equal(t, "Criteria failed: Criteria value must be a number", result.Message)
}

func TestMonthlyOrderValueEvaluator(t *testing.T) {
	e := monthlyOrderValueEvaluator{}
	ectx := tierupgradedomain.EvaluationContext{MonthlyOrderValue: 20000}

	result := e.Evaluate(ectx, int64(20000))
	assert.True(t, result.Passed)

	result = e.Evaluate(ectx, int64(20001))
	assert.False(t, result.Passed)
	assert.Equal(t, "Criteria failed: Required: 20001, Actual: 20000", result.Message)

	result = e.Evaluate(ectx, "a lot")
	assert.False(t, result.Passed)
	assert.Equal(t, "Criteria failed: Criteria value must be a number", result.Message)
}

func TestCohortEvaluator(t *testing.T) {
	e := cohortEvaluator{}

	result := e.Evaluate(tierupgradedomain.EvaluationContext{Cohort: strptr("VIP")}, "VIP")
	assert.True(t, result.Passed)

	result = e.Evaluate(tierupgradedomain.EvaluationContext{Cohort: strptr("STANDARD")}, "VIP")
	assert.False(t, result.Passed)
	assert.Equal(t, "Criteria failed: Expected: VIP, Actual: STANDARD", result.Message)
}

func TestCohortEvaluator_NilCohort(t *testing.T) {
	e := cohortEvaluator{}
	result := e.Evaluate(tierupgradedomain.EvaluationContext{Cohort: nil}, "VIP")

	assert.False(t, result.Passed)
	assert.Equal(t, "NULL", result.ActualValue)
	assert.Equal(t, "Criteria failed: User cohort is not set", result.Message)
}

func TestCohortEvaluator_InvalidValueType(t *testing.T) {
	e := cohortEvaluator{}
	result := e.Evaluate(tierupgradedomain.EvaluationContext{Cohort: strptr("VIP")}, 42)

	assert.False(t, result.Passed)
	assert.Equal(t, "Criteria failed: Criteria value must be a string", result.Message)
}

func TestEvaluators_CoverAllCriteriaTypes(t *testing.T) {
	evaluators := Evaluators()
	require.Len(t, evaluators, 3)

	seen := map[tierupgradedomain.CriteriaType]bool{}
	for _, e := range evaluators {
		seen[e.CriteriaType()] = true
	}
	assert.True(t, seen[tierupgradedomain.CriteriaOrderCount])
	assert.True(t, seen[tierupgradedomain.CriteriaMonthlyOrderValue])
	assert.True(t, seen[tierupgradedomain.CriteriaUserCohort])
}
