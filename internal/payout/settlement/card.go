package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
)

// CardSettler pushes funds to the vendor's debit card.
type CardSettler struct{}

func NewCardSettler() *CardSettler {
	return &CardSettler{}
}

func (s *CardSettler) Method() string { return payoutdomain.MethodCard }

func (s *CardSettler) Settle(ctx context.Context, payout payoutdomain.Payout) (string, error) {
	if payout.NetAmount <= 0 {
		return "", errors.New("card payout requires a positive net amount")
	}
	return fmt.Sprintf("cd_%s", uuid.NewString()), nil
}
