package audit

import (
	"github.com/perkly/perkly/internal/audit/repository"
	"github.com/perkly/perkly/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
