package identity

import (
	"github.com/perkly/perkly/internal/identity/repository"
	"github.com/perkly/perkly/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
