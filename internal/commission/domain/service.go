package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vendopay/vendopay/pkg/db/pagination"
)

type Service interface {
	// CalculateForOrder creates calculated commissions for every line item of
	// a paid order. Idempotent per (order, product); per-item failures are
	// reported as skipped, not returned as errors.
	CalculateForOrder(ctx context.Context, orderID string) (*CalculationResult, error)

	// ResolveRate computes the effective commission rate for a prospective
	// sale without persisting anything.
	ResolveRate(ctx context.Context, req ResolveRateRequest) (*RateResolution, error)

	// Recalculate re-derives rates for calculated, unclaimed commissions of a
	// vendor against the current configuration.
	Recalculate(ctx context.Context, req RecalculateRequest) (*RecalculateResult, error)

	// MarkDisputed moves a calculated or paid commission into the disputed
	// terminal state.
	MarkDisputed(ctx context.Context, req MarkDisputedRequest) (*Response, error)

	List(ctx context.Context, req ListRequest) (ListResponse, error)
	GetByID(ctx context.Context, id string) (*Response, error)
}

type ResolveRateRequest struct {
	VendorID   string `json:"vendor_id"`
	Category   string `json:"category"`
	SaleAmount int64  `json:"sale_amount"`
}

// RateResolution explains how the effective rate was assembled.
type RateResolution struct {
	Rate          float64 `json:"rate"`
	BaseRate      float64 `json:"base_rate"`
	TierName      string  `json:"tier_name,omitempty"`
	CategoryRate  float64 `json:"category_rate,omitempty"`
	Bonus         float64 `json:"bonus,omitempty"`
	UsedDefault   bool    `json:"used_default"`
	ConfigVersion string  `json:"config_version"`
}

type CalculationResult struct {
	OrderID     string        `json:"order_id"`
	Commissions []Response    `json:"commissions"`
	Skipped     []SkippedItem `json:"skipped,omitempty"`
}

// SkippedItem records a line item that produced no new commission and why.
type SkippedItem struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

const (
	SkipReasonNoVendor          = "no_resolvable_vendor"
	SkipReasonAlreadyCalculated = "already_calculated"
	SkipReasonPersistFailed     = "persist_failed"
)

type RecalculateRequest struct {
	VendorID string     `json:"vendor_id"`
	FromDate *time.Time `json:"from_date,omitempty"`
}

type RecalculateResult struct {
	UpdatedCount    int    `json:"updated_count"`
	TotalAdjustment int64  `json:"total_adjustment"`
	ConfigVersion   string `json:"config_version"`
}

type MarkDisputedRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type ListRequest struct {
	pagination.Pagination
	VendorID  string     `form:"vendor_id"`
	Status    string     `form:"status"`
	ProductID string     `form:"product_id"`
	DateFrom  *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo    *time.Time `form:"date_to" time_format:"2006-01-02"`
}

type ListResponse struct {
	pagination.PageInfo
	Commissions []Response `json:"commissions"`
}

type Response struct {
	ID           string     `json:"id"`
	VendorID     string     `json:"vendor_id"`
	OrderID      string     `json:"order_id"`
	ProductID    string     `json:"product_id"`
	Category     string     `json:"category"`
	SaleAmount   int64      `json:"sale_amount"`
	Rate         float64    `json:"rate"`
	Amount       int64      `json:"amount"`
	Status       Status     `json:"status"`
	PayoutID     string     `json:"payout_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CalculatedAt *time.Time `json:"calculated_at,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}

var (
	ErrInvalidVendor     = errors.New("invalid_vendor")
	ErrInvalidOrder      = errors.New("invalid_order")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTimeRange  = errors.New("invalid_time_range")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
