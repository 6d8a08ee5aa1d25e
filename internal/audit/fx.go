package audit

import (
	"github.com/vendopay/vendopay/internal/audit/repository"
	"github.com/vendopay/vendopay/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
