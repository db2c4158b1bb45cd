package tier

import (
	"github.com/smallbiznis/tierway/internal/tier/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("tier",
	fx.Provide(repository.Provide),
)
