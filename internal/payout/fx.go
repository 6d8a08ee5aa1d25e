package payout

import (
	"github.com/vendopay/vendopay/internal/payout/repository"
	"github.com/vendopay/vendopay/internal/payout/service"
	"github.com/vendopay/vendopay/internal/payout/settlement"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	settlement.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
