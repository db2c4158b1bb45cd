package domain

import (
	"context"
	"errors"
)

// Service evaluates upgrade rules for a user and applies automatic
// upgrades. Evaluation never mutates state; ProcessAutomaticUpgrades is the
// only writer.
type Service interface {
	// Evaluate runs the best applicable rule's criteria and returns the
	// per-criterion results, or an empty slice when no rule applies.
	Evaluate(ctx context.Context, userID string) ([]EvaluationResult, error)
	// DetailedResults evaluates every rule applicable to the user's current
	// tier and concatenates the per-criterion results.
	DetailedResults(ctx context.Context, userID string) ([]EvaluationResult, error)
	// ApplicableRules lists active rules whose source tier matches the
	// user's current tier level.
	ApplicableRules(ctx context.Context, userID string) ([]RuleDefinition, error)
	// BestApplicableRule returns the eligible rule with the highest target
	// tier level, or nil when the user qualifies for none.
	BestApplicableRule(ctx context.Context, userID string) (*RuleDefinition, error)
	IsEligibleForUpgrade(ctx context.Context, userID string) (bool, error)
	// ProcessAutomaticUpgrades upgrades the user when the best applicable
	// rule is flagged auto-upgrade. The evaluation timestamp is stamped only
	// after a successful upgrade. Returns whether the tier changed.
	ProcessAutomaticUpgrades(ctx context.Context, userID string) (bool, error)
}

var ErrInvalidUser = errors.New("invalid_user")
