package vendors

import (
	"github.com/vendopay/vendopay/internal/vendors/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("vendor.store",
	fx.Provide(repository.Provide),
)
