package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
)

// BankTransferSettler issues SEPA/ACH-style transfers. The reference is the
// transfer instruction id handed to the banking rail.
type BankTransferSettler struct{}

func NewBankTransferSettler() *BankTransferSettler {
	return &BankTransferSettler{}
}

func (s *BankTransferSettler) Method() string { return payoutdomain.MethodBankTransfer }

func (s *BankTransferSettler) Settle(ctx context.Context, payout payoutdomain.Payout) (string, error) {
	if payout.NetAmount <= 0 {
		return "", errors.New("bank transfer requires a positive net amount")
	}
	return fmt.Sprintf("bt_%s", uuid.NewString()), nil
}
