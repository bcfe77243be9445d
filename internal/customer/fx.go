package customer

import (
	"github.com/perkly/perkly/internal/customer/repository"
	"github.com/perkly/perkly/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
