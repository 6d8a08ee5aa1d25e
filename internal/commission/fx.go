package commission

import (
	"github.com/vendopay/vendopay/internal/commission/repository"
	"github.com/vendopay/vendopay/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
