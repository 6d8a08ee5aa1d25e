package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
)

// PayPalSettler transfers to the vendor's PayPal account.
type PayPalSettler struct{}

func NewPayPalSettler() *PayPalSettler {
	return &PayPalSettler{}
}

func (s *PayPalSettler) Method() string { return payoutdomain.MethodPayPal }

func (s *PayPalSettler) Settle(ctx context.Context, payout payoutdomain.Payout) (string, error) {
	if payout.NetAmount <= 0 {
		return "", errors.New("paypal payout requires a positive net amount")
	}
	return fmt.Sprintf("pp_%s", uuid.NewString()), nil
}
