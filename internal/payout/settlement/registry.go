package settlement

import (
	"strings"

	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
	"go.uber.org/fx"
)

// Registry dispatches settlement to the settler registered for a payout's
// payment method.
type Registry struct {
	settlers map[string]payoutdomain.Settler
}

func NewRegistry(settlers ...payoutdomain.Settler) *Registry {
	registry := &Registry{settlers: map[string]payoutdomain.Settler{}}
	for _, settler := range settlers {
		if settler == nil {
			continue
		}
		method := strings.ToLower(strings.TrimSpace(settler.Method()))
		if method == "" {
			continue
		}
		registry.settlers[method] = settler
	}
	return registry
}

func (r *Registry) MethodExists(method string) bool {
	if r == nil {
		return false
	}
	method = strings.ToLower(strings.TrimSpace(method))
	_, ok := r.settlers[method]
	return ok
}

func (r *Registry) For(method string) (payoutdomain.Settler, bool) {
	if r == nil {
		return nil, false
	}
	method = strings.ToLower(strings.TrimSpace(method))
	settler, ok := r.settlers[method]
	return settler, ok
}

func provideRegistry() *Registry {
	return NewRegistry(
		NewBankTransferSettler(),
		NewCardSettler(),
		NewPayPalSettler(),
	)
}

var Module = fx.Module("payout.settlement",
	fx.Provide(provideRegistry),
)
