package order

import (
	"github.com/vendopay/vendopay/internal/order/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("order.store",
	fx.Provide(repository.Provide),
)
