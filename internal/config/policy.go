package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EvaluationPolicy controls the reconciliation cadence. It is loaded from
// tierway.yml and can be edited without restarting the scheduler.
type EvaluationPolicy struct {
	// EvaluationIntervalDays is the minimum gap between two tier
	// evaluations of the same user.
	EvaluationIntervalDays int `mapstructure:"evaluationIntervalDays"`
	// MinMembershipDays is how long a never-evaluated user must have been
	// a member before the first evaluation.
	MinMembershipDays int `mapstructure:"minMembershipDays"`
}

func DefaultEvaluationPolicy() EvaluationPolicy {
	return EvaluationPolicy{
		EvaluationIntervalDays: 30,
		MinMembershipDays:      30,
	}
}

type EvaluationPolicyHolder struct {
	current atomic.Value // holds EvaluationPolicy
}

func NewEvaluationPolicyHolder() (*EvaluationPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("tierway")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tierway/config")
	v.AddConfigPath("/etc/tierway")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TIERWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultEvaluationPolicy()
		v.SetDefault("evaluation.evaluationIntervalDays", defaults.EvaluationIntervalDays)
		v.SetDefault("evaluation.minMembershipDays", defaults.MinMembershipDays)
	}

	var policy EvaluationPolicy
	if err := v.UnmarshalKey("evaluation", &policy); err != nil {
		return nil, err
	}
	if err := validateEvaluationPolicy(policy); err != nil {
		return nil, err
	}

	holder := &EvaluationPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated EvaluationPolicy
		if err := v.UnmarshalKey("evaluation", &updated); err != nil {
			log.Printf("[evaluation-policy] reload failed: %v", err)
			return
		}
		if err := validateEvaluationPolicy(updated); err != nil {
			log.Printf("[evaluation-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[evaluation-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *EvaluationPolicyHolder) Get() EvaluationPolicy {
	return h.current.Load().(EvaluationPolicy)
}

// NewStaticEvaluationPolicyHolder wraps a fixed policy, for tests.
func NewStaticEvaluationPolicyHolder(policy EvaluationPolicy) *EvaluationPolicyHolder {
	holder := &EvaluationPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func validateEvaluationPolicy(policy EvaluationPolicy) error {
	if policy.EvaluationIntervalDays <= 0 {
		return errors.New("evaluation.evaluationIntervalDays must be positive")
	}
	if policy.MinMembershipDays < 0 {
		return errors.New("evaluation.minMembershipDays cannot be negative")
	}
	return nil
}
