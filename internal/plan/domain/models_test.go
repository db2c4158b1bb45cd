package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountedPrice(t *testing.T) {
	plan := MembershipPlan{Price: 23988, DiscountPercentage: 20}
	assert.Equal(t, int64(19190), plan.DiscountedPrice())

	plan = MembershipPlan{Price: 1999}
	assert.Equal(t, int64(1999), plan.DiscountedPrice())

	// Rounds to the nearest minor unit.
	plan = MembershipPlan{Price: 3999, DiscountPercentage: 5}
	assert.Equal(t, int64(3799), plan.DiscountedPrice())
}

func TestApplicableForTier(t *testing.T) {
	unrestricted := MembershipPlan{}
	assert.True(t, unrestricted.ApplicableForTier(1))
	assert.True(t, unrestricted.ApplicableForTier(3))

	maxLevel := 2
	capped := MembershipPlan{MaxTierLevel: &maxLevel}
	assert.True(t, capped.ApplicableForTier(1))
	assert.True(t, capped.ApplicableForTier(2))
	assert.False(t, capped.ApplicableForTier(3))
}
