package reward

import (
	"github.com/perkly/perkly/internal/reward/repository"
	"github.com/perkly/perkly/internal/reward/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reward.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
