// Package seed bootstraps reference data so a fresh install is usable
// immediately: the tier ladder, the plan catalog and the upgrade rules.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/tierway/internal/order/domain"
	plandomain "github.com/smallbiznis/tierway/internal/plan/domain"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"gorm.io/gorm"
)

// EnsureBaseline seeds tiers, plans and upgrade rules. Each table is seeded
// only when empty, so restarts are safe.
func EnsureBaseline(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTiers(ctx, tx, node); err != nil {
			return err
		}
		if err := ensurePlans(ctx, tx, node); err != nil {
			return err
		}
		return ensureUpgradeRules(ctx, tx, node)
	})
}

// EnsureDemoData seeds a few users with order history for local
// experiments. Never enabled in production.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&userdomain.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return seedDemoUsers(ctx, tx, node)
	})
}

func ensureTiers(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tierdomain.MembershipTier{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	tiers := []tierdomain.MembershipTier{
		{ID: node.Generate(), Name: "Silver", TierLevel: 1, DiscountPercentage: 5, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Gold", TierLevel: 2, DiscountPercentage: 10, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Platinum", TierLevel: 3, DiscountPercentage: 15, Active: true, CreatedAt: now, UpdatedAt: now},
	}
	return tx.WithContext(ctx).Create(&tiers).Error
}

func ensurePlans(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&plandomain.MembershipPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	maxTier := func(level int) *int { return &level }
	plans := []plandomain.MembershipPlan{
		{ID: node.Generate(), Name: "Monthly Silver", Description: "Monthly subscription to Silver tier membership", DurationMonths: 1, Price: 1999, DiscountPercentage: 0, MaxTierLevel: maxTier(1), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Monthly Gold", Description: "Monthly subscription to Gold tier membership", DurationMonths: 1, Price: 3999, DiscountPercentage: 5, MaxTierLevel: maxTier(2), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Monthly Platinum", Description: "Monthly subscription to Platinum tier membership", DurationMonths: 1, Price: 7999, DiscountPercentage: 10, MaxTierLevel: maxTier(3), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Quarterly Silver", Description: "Quarterly subscription to Silver tier membership", DurationMonths: 3, Price: 5997, DiscountPercentage: 10, MaxTierLevel: maxTier(1), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Quarterly Gold", Description: "Quarterly subscription to Gold tier membership", DurationMonths: 3, Price: 11997, DiscountPercentage: 15, MaxTierLevel: maxTier(2), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Quarterly Platinum", Description: "Quarterly subscription to Platinum tier membership", DurationMonths: 3, Price: 23997, DiscountPercentage: 20, MaxTierLevel: maxTier(3), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Yearly Silver", Description: "Annual subscription to Silver tier membership with maximum savings", DurationMonths: 12, Price: 23988, DiscountPercentage: 20, MaxTierLevel: maxTier(1), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Yearly Gold", Description: "Annual subscription to Gold tier membership with maximum savings", DurationMonths: 12, Price: 47988, DiscountPercentage: 25, MaxTierLevel: maxTier(2), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Yearly Platinum", Description: "Annual subscription to Platinum tier membership with maximum savings", DurationMonths: 12, Price: 95988, DiscountPercentage: 30, MaxTierLevel: maxTier(3), Active: true, CreatedAt: now, UpdatedAt: now},
	}
	return tx.WithContext(ctx).Create(&plans).Error
}

func ensureUpgradeRules(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tierupgradedomain.TierUpgradeRule{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	intPtr := func(v int) *int { return &v }
	int64Ptr := func(v int64) *int64 { return &v }
	strPtr := func(v string) *string { return &v }

	rules := []tierupgradedomain.TierUpgradeRule{
		{
			ID:                   node.Generate(),
			RuleName:             "Silver to Gold Auto-Upgrade",
			RuleDescription:      "Automatic upgrade from Silver to Gold tier based on order activity",
			SourceTierLevel:      1,
			TargetTierLevel:      2,
			MinOrdersRequired:    intPtr(5),
			MinMonthlyOrderValue: int64Ptr(20000),
			AutoUpgrade:          true,
			Active:               true,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		{
			ID:                   node.Generate(),
			RuleName:             "Gold to Platinum Auto-Upgrade",
			RuleDescription:      "Automatic upgrade from Gold to Platinum tier based on order activity",
			SourceTierLevel:      2,
			TargetTierLevel:      3,
			MinOrdersRequired:    intPtr(10),
			MinMonthlyOrderValue: int64Ptr(50000),
			AutoUpgrade:          true,
			Active:               true,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		{
			ID:                   node.Generate(),
			RuleName:             "Silver to Platinum Direct Upgrade",
			RuleDescription:      "Direct upgrade from Silver to Platinum for high-value customers",
			SourceTierLevel:      1,
			TargetTierLevel:      3,
			MinOrdersRequired:    intPtr(15),
			MinMonthlyOrderValue: int64Ptr(100000),
			CohortRestriction:    strPtr("VIP"),
			AutoUpgrade:          false,
			Active:               true,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
	}
	return tx.WithContext(ctx).Create(&rules).Error
}

func seedDemoUsers(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	memberSince := now.AddDate(0, -3, 0)
	vip := "VIP"

	users := []userdomain.User{
		{ID: node.Generate(), Username: "alice", Email: "alice@example.com", Status: "ACTIVE", CurrentTierLevel: 1, Cohort: &vip, MembershipStartAt: &memberSince, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Username: "bob", Email: "bob@example.com", Status: "ACTIVE", CurrentTierLevel: 1, MembershipStartAt: &memberSince, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Username: "carol", Email: "carol@example.com", Status: "ACTIVE", CurrentTierLevel: 2, MembershipStartAt: &memberSince, CreatedAt: now, UpdatedAt: now},
	}
	if err := tx.WithContext(ctx).Create(&users).Error; err != nil {
		return err
	}

	var orders []orderdomain.Order
	for i := 0; i < 6; i++ {
		orders = append(orders, orderdomain.Order{
			ID:          node.Generate(),
			UserID:      users[0].ID,
			Status:      orderdomain.OrderStatusCompleted,
			TotalAmount: 5000,
			Currency:    "USD",
			CreatedAt:   now.AddDate(0, 0, -i),
			UpdatedAt:   now,
		})
	}
	for i := 0; i < 2; i++ {
		orders = append(orders, orderdomain.Order{
			ID:          node.Generate(),
			UserID:      users[1].ID,
			Status:      orderdomain.OrderStatusCompleted,
			TotalAmount: 2500,
			Currency:    "USD",
			CreatedAt:   now.AddDate(0, 0, -i),
			UpdatedAt:   now,
		})
	}
	return tx.WithContext(ctx).Create(&orders).Error
}
