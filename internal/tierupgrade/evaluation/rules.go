package evaluation

import (
	"fmt"

	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RuleEngine evaluates rule definitions against contexts using the
// registered criteria evaluators.
type RuleEngine struct {
	log        *zap.Logger
	evaluators []CriteriaEvaluator
}

type RuleEngineParam struct {
	fx.In

	Log        *zap.Logger
	Evaluators []CriteriaEvaluator
}

func NewRuleEngine(p RuleEngineParam) *RuleEngine {
	return &RuleEngine{
		log:        p.Log.Named("tierupgrade.rules"),
		evaluators: p.Evaluators,
	}
}

// EvaluateRule runs every criterion of the rule and returns one result per
// criterion, in definition order.
func (e *RuleEngine) EvaluateRule(rule tierupgradedomain.RuleDefinition, ectx tierupgradedomain.EvaluationContext) []tierupgradedomain.EvaluationResult {
	results := make([]tierupgradedomain.EvaluationResult, 0, len(rule.Criteria))
	for _, criteria := range rule.Criteria {
		results = append(results, e.evaluateCriteria(criteria, ectx))
	}
	return results
}

// IsEligible reports whether every criterion of the rule passes. Criteria
// combine with AND only; a rule with no criteria passes vacuously.
func (e *RuleEngine) IsEligible(rule tierupgradedomain.RuleDefinition, ectx tierupgradedomain.EvaluationContext) bool {
	for _, result := range e.EvaluateRule(rule, ectx) {
		if !result.Passed {
			e.log.Debug("rule failed criteria",
				zap.String("rule", rule.RuleName),
				zap.String("user_id", ectx.UserID.String()),
				zap.String("criteria_type", string(result.CriteriaType)),
			)
			return false
		}
	}
	return true
}

// FindBestApplicableRule returns the eligible active rule with the highest
// target tier level, or nil when none qualifies.
func (e *RuleEngine) FindBestApplicableRule(rules []tierupgradedomain.RuleDefinition, ectx tierupgradedomain.EvaluationContext) *tierupgradedomain.RuleDefinition {
	var best *tierupgradedomain.RuleDefinition
	for i := range rules {
		rule := rules[i]
		if !rule.Active {
			continue
		}
		if !e.IsEligible(rule, ectx) {
			continue
		}
		if best == nil || rule.TargetTierLevel > best.TargetTierLevel {
			best = &rules[i]
		}
	}
	return best
}

func (e *RuleEngine) evaluateCriteria(criteria tierupgradedomain.CriteriaDefinition, ectx tierupgradedomain.EvaluationContext) tierupgradedomain.EvaluationResult {
	for _, evaluator := range e.evaluators {
		if evaluator.CanHandle(criteria.Type) {
			return evaluator.Evaluate(ectx, criteria.Value)
		}
	}
	return tierupgradedomain.FailedResult(criteria.Type, criteria.Value, "UNSUPPORTED",
		fmt.Sprintf("No evaluator found for criteria type: %s", criteria.Type))
}
