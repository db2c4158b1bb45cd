package evaluation

import (
	"context"

	"github.com/smallbiznis/tierway/internal/clock"
	orderdomain "github.com/smallbiznis/tierway/internal/order/domain"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContextBuilder assembles the per-user metrics rules are evaluated
// against.
type ContextBuilder struct {
	log       *zap.Logger
	clock     clock.Clock
	orderRepo orderdomain.Repository
}

type ContextBuilderParam struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	OrderRepo orderdomain.Repository
}

func NewContextBuilder(p ContextBuilderParam) *ContextBuilder {
	return &ContextBuilder{
		log:       p.Log.Named("tierupgrade.context"),
		clock:     p.Clock,
		orderRepo: p.OrderRepo,
	}
}

// Build counts the user's completed orders and sums the ones placed in the
// current calendar month. Only COMPLETED orders contribute to either
// metric.
func (b *ContextBuilder) Build(ctx context.Context, db *gorm.DB, user userdomain.User) (tierupgradedomain.EvaluationContext, error) {
	completed, err := b.orderRepo.FindByUserIDAndStatus(ctx, db, user.ID, orderdomain.OrderStatusCompleted)
	if err != nil {
		return tierupgradedomain.EvaluationContext{}, err
	}

	now := b.clock.Now()
	var monthlyValue int64
	for _, order := range completed {
		if order.CreatedAt.Year() == now.Year() && order.CreatedAt.Month() == now.Month() {
			monthlyValue += order.EffectiveAmount()
		}
	}

	return tierupgradedomain.EvaluationContext{
		UserID:            user.ID,
		TotalOrderCount:   len(completed),
		MonthlyOrderValue: monthlyValue,
		Cohort:            user.Cohort,
	}, nil
}
