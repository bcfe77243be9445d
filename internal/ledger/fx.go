package ledger

import (
	"github.com/perkly/perkly/internal/ledger/repository"
	"github.com/perkly/perkly/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
