package tierupgrade

import (
	"github.com/smallbiznis/tierway/internal/tierupgrade/evaluation"
	"github.com/smallbiznis/tierway/internal/tierupgrade/repository"
	"github.com/smallbiznis/tierway/internal/tierupgrade/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tierupgrade.service",
	fx.Provide(repository.Provide),
	fx.Provide(evaluation.Evaluators),
	fx.Provide(evaluation.NewContextBuilder),
	fx.Provide(evaluation.NewRuleEngine),
	fx.Provide(service.NewService),
)
