package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// CreatePayout batches the given calculated, unclaimed commissions of a
	// vendor into one payout. The whole selection is validated up front and
	// claimed atomically; any ineligible or contested commission rejects the
	// entire request.
	CreatePayout(ctx context.Context, req CreatePayoutRequest) (*Response, error)

	// ProcessPayout settles a pending or processing payout. When no payment
	// reference is supplied the settler registered for the payout's payment
	// method is asked to produce one. Completion marks every claimed
	// commission paid in the same transaction.
	ProcessPayout(ctx context.Context, req ProcessPayoutRequest) (*Response, error)

	// FailPayout marks a pending or processing payout failed and releases its
	// commissions back to the claimable pool.
	FailPayout(ctx context.Context, req FailPayoutRequest) (*Response, error)

	// CancelPayout cancels a pending or processing payout and releases its
	// commissions.
	CancelPayout(ctx context.Context, id string) (*Response, error)

	List(ctx context.Context, vendorID string) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
}

// Settler executes one payment method against the external rail.
type Settler interface {
	Method() string
	Settle(ctx context.Context, payout Payout) (reference string, err error)
}

type CreatePayoutRequest struct {
	VendorID      string   `json:"vendor_id"`
	CommissionIDs []string `json:"commission_ids"`
	PaymentMethod string   `json:"payment_method"`
}

type ProcessPayoutRequest struct {
	ID               string `json:"id"`
	PaymentReference string `json:"payment_reference"`
}

type FailPayoutRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type Response struct {
	ID               string     `json:"id"`
	Number           string     `json:"number"`
	VendorID         string     `json:"vendor_id"`
	TotalAmount      int64      `json:"total_amount"`
	CommissionCount  int        `json:"commission_count"`
	PeriodStart      time.Time  `json:"period_start"`
	PeriodEnd        time.Time  `json:"period_end"`
	FeeRate          float64    `json:"fee_rate"`
	FeeAmount        int64      `json:"fee_amount"`
	NetAmount        int64      `json:"net_amount"`
	Status           Status     `json:"status"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentReference *string    `json:"payment_reference,omitempty"`
	FailureReason    *string    `json:"failure_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
}

var (
	ErrInvalidVendor         = errors.New("invalid_vendor")
	ErrInvalidID             = errors.New("invalid_id")
	ErrEmptySelection        = errors.New("empty_commission_selection")
	ErrCommissionNotFound    = errors.New("commission_not_found")
	ErrCommissionNotEligible = errors.New("commission_not_eligible")
	ErrClaimConflict         = errors.New("commission_claim_conflict")
	ErrNotFound              = errors.New("not_found")
	ErrInvalidTransition     = errors.New("invalid_status_transition")
	ErrInvalidPaymentMethod  = errors.New("invalid_payment_method")
	ErrSettlementFailed      = errors.New("settlement_failed")
	ErrVendorLocked          = errors.New("vendor_payout_in_progress")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
