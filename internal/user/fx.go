package user

import (
	"github.com/smallbiznis/tierway/internal/user/repository"
	"github.com/smallbiznis/tierway/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
