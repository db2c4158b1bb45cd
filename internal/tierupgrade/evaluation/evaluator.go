// Package evaluation implements the criteria engine behind tier upgrades.
// Each criteria type has its own evaluator; a bad threshold value or an
// unknown criteria type produces a failed result, never an error, so one
// malformed rule cannot abort a whole evaluation run.
package evaluation

import (
	"fmt"
	"math"

	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
)

// CriteriaEvaluator checks one criteria type against an evaluation context.
type CriteriaEvaluator interface {
	CriteriaType() tierupgradedomain.CriteriaType
	CanHandle(criteriaType tierupgradedomain.CriteriaType) bool
	Evaluate(ectx tierupgradedomain.EvaluationContext, value any) tierupgradedomain.EvaluationResult
}

// Evaluators returns the default evaluator set, one per supported criteria
// type.
func Evaluators() []CriteriaEvaluator {
	return []CriteriaEvaluator{
		orderCountEvaluator{},
		monthlyOrderValueEvaluator{},
		cohortEvaluator{},
	}
}

type orderCountEvaluator struct{}

func (orderCountEvaluator) CriteriaType() tierupgradedomain.CriteriaType {
	return tierupgradedomain.CriteriaOrderCount
}

func (e orderCountEvaluator) CanHandle(criteriaType tierupgradedomain.CriteriaType) bool {
	return criteriaType == e.CriteriaType()
}

func (e orderCountEvaluator) Evaluate(ectx tierupgradedomain.EvaluationContext, value any) tierupgradedomain.EvaluationResult {
	expected, ok := asInt64(value)
	if !ok {
		return tierupgradedomain.FailedResult(e.CriteriaType(), value, "Invalid value type",
			"Criteria value must be a number")
	}

	actual := int64(ectx.TotalOrderCount)
	if actual >= expected {
		return tierupgradedomain.PassedResult(e.CriteriaType(), expected, actual)
	}
	return tierupgradedomain.FailedResult(e.CriteriaType(), expected, actual,
		fmt.Sprintf("Required: %d, Actual: %d", expected, actual))
}

type monthlyOrderValueEvaluator struct{}

func (monthlyOrderValueEvaluator) CriteriaType() tierupgradedomain.CriteriaType {
	return tierupgradedomain.CriteriaMonthlyOrderValue
}

func (e monthlyOrderValueEvaluator) CanHandle(criteriaType tierupgradedomain.CriteriaType) bool {
	return criteriaType == e.CriteriaType()
}

func (e monthlyOrderValueEvaluator) Evaluate(ectx tierupgradedomain.EvaluationContext, value any) tierupgradedomain.EvaluationResult {
	expected, ok := asInt64(value)
	if !ok {
		return tierupgradedomain.FailedResult(e.CriteriaType(), value, "Invalid value type",
			"Criteria value must be a number")
	}

	actual := ectx.MonthlyOrderValue
	if actual >= expected {
		return tierupgradedomain.PassedResult(e.CriteriaType(), expected, actual)
	}
	return tierupgradedomain.FailedResult(e.CriteriaType(), expected, actual,
		fmt.Sprintf("Required: %d, Actual: %d", expected, actual))
}

type cohortEvaluator struct{}

func (cohortEvaluator) CriteriaType() tierupgradedomain.CriteriaType {
	return tierupgradedomain.CriteriaUserCohort
}

func (e cohortEvaluator) CanHandle(criteriaType tierupgradedomain.CriteriaType) bool {
	return criteriaType == e.CriteriaType()
}

func (e cohortEvaluator) Evaluate(ectx tierupgradedomain.EvaluationContext, value any) tierupgradedomain.EvaluationResult {
	expected, ok := value.(string)
	if !ok {
		return tierupgradedomain.FailedResult(e.CriteriaType(), value, "Invalid value type",
			"Criteria value must be a string")
	}

	if ectx.Cohort == nil {
		return tierupgradedomain.FailedResult(e.CriteriaType(), expected, "NULL",
			"User cohort is not set")
	}

	actual := *ectx.Cohort
	if actual == expected {
		return tierupgradedomain.PassedResult(e.CriteriaType(), expected, actual)
	}
	return tierupgradedomain.FailedResult(e.CriteriaType(), expected, actual,
		fmt.Sprintf("Expected: %s, Actual: %s", expected, actual))
}

// asInt64 accepts the numeric types a threshold can arrive as, either from
// the rule store or from decoded JSON.
func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		// JSON decoding hands over float64; a fractional threshold is
		// malformed, not a looser requirement.
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
