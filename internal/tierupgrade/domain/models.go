// Package domain contains tier upgrade rules and the evaluation data model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CriteriaType identifies which evaluator handles a criterion.
type CriteriaType string

const (
	CriteriaOrderCount        CriteriaType = "ORDER_COUNT"
	CriteriaMonthlyOrderValue CriteriaType = "MONTHLY_ORDER_VALUE"
	CriteriaUserCohort        CriteriaType = "USER_COHORT"
)

// TierUpgradeRule is the stored form of an upgrade rule. Source and target
// reference tier levels, not tier rows, so rules survive tier renames.
// Threshold columns are nullable; a NULL threshold contributes no criterion.
type TierUpgradeRule struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	RuleName             string       `gorm:"type:text;not null" json:"rule_name"`
	RuleDescription      string       `gorm:"type:text" json:"rule_description"`
	SourceTierLevel      int          `gorm:"not null;index" json:"source_tier_level"`
	TargetTierLevel      int          `gorm:"not null" json:"target_tier_level"`
	MinOrdersRequired    *int         `gorm:"" json:"min_orders_required,omitempty"`
	MinMonthlyOrderValue *int64       `gorm:"" json:"min_monthly_order_value,omitempty"`
	CohortRestriction    *string      `gorm:"type:text" json:"cohort_restriction,omitempty"`
	AutoUpgrade          bool         `gorm:"not null;default:false" json:"auto_upgrade"`
	Active               bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TierUpgradeRule) TableName() string { return "tier_upgrade_rules" }

// Definition expands the stored row into the evaluable form. Criteria are
// derived from whichever thresholds are set and combine with AND.
func (r TierUpgradeRule) Definition() RuleDefinition {
	var criteria []CriteriaDefinition
	if r.MinOrdersRequired != nil {
		criteria = append(criteria, CriteriaDefinition{
			Type:             CriteriaOrderCount,
			Value:            *r.MinOrdersRequired,
			LogicalCondition: "AND",
		})
	}
	if r.MinMonthlyOrderValue != nil {
		criteria = append(criteria, CriteriaDefinition{
			Type:             CriteriaMonthlyOrderValue,
			Value:            *r.MinMonthlyOrderValue,
			LogicalCondition: "AND",
		})
	}
	if r.CohortRestriction != nil {
		criteria = append(criteria, CriteriaDefinition{
			Type:             CriteriaUserCohort,
			Value:            *r.CohortRestriction,
			LogicalCondition: "AND",
		})
	}

	return RuleDefinition{
		ID:              r.ID,
		RuleName:        r.RuleName,
		RuleDescription: r.RuleDescription,
		SourceTierLevel: r.SourceTierLevel,
		TargetTierLevel: r.TargetTierLevel,
		AutoUpgrade:     r.AutoUpgrade,
		Active:          r.Active,
		Criteria:        criteria,
	}
}

// CriteriaDefinition is a single threshold to evaluate. Value is untyped so
// criteria sourced from configuration or external rule stores pass through
// unchanged; each evaluator validates the type it expects.
type CriteriaDefinition struct {
	Type             CriteriaType `json:"criteria_type"`
	Value            any          `json:"value"`
	LogicalCondition string       `json:"logical_condition"`
}

// RuleDefinition is the evaluable form of an upgrade rule.
type RuleDefinition struct {
	ID              snowflake.ID         `json:"id"`
	RuleName        string               `json:"rule_name"`
	RuleDescription string               `json:"rule_description"`
	SourceTierLevel int                  `json:"source_tier_level"`
	TargetTierLevel int                  `json:"target_tier_level"`
	AutoUpgrade     bool                 `json:"auto_upgrade"`
	Active          bool                 `json:"active"`
	Criteria        []CriteriaDefinition `json:"criteria"`
}

// EvaluationContext carries the per-user metrics criteria are checked
// against. MonthlyOrderValue is the completed-order total for the current
// calendar month, in minor currency units.
type EvaluationContext struct {
	UserID            snowflake.ID `json:"user_id"`
	TotalOrderCount   int          `json:"total_order_count"`
	MonthlyOrderValue int64        `json:"monthly_order_value"`
	Cohort            *string      `json:"cohort,omitempty"`
}

// EvaluationResult records the outcome of one criterion against one context.
type EvaluationResult struct {
	Passed        bool         `json:"passed"`
	CriteriaType  CriteriaType `json:"criteria_type"`
	ExpectedValue any          `json:"expected_value"`
	ActualValue   any          `json:"actual_value"`
	Message       string       `json:"message"`
}

func PassedResult(criteriaType CriteriaType, expected, actual any) EvaluationResult {
	return EvaluationResult{
		Passed:        true,
		CriteriaType:  criteriaType,
		ExpectedValue: expected,
		ActualValue:   actual,
		Message:       "Criteria passed",
	}
}

func FailedResult(criteriaType CriteriaType, expected, actual any, details string) EvaluationResult {
	return EvaluationResult{
		Passed:        false,
		CriteriaType:  criteriaType,
		ExpectedValue: expected,
		ActualValue:   actual,
		Message:       "Criteria failed: " + details,
	}
}
