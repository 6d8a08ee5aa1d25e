package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/vendopay/vendopay/internal/audit/domain"
	"github.com/vendopay/vendopay/internal/clock"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	"github.com/vendopay/vendopay/internal/config"
	"github.com/vendopay/vendopay/internal/metrics"
	orderdomain "github.com/vendopay/vendopay/internal/order/domain"
	vendordomain "github.com/vendopay/vendopay/internal/vendors/domain"
	"github.com/vendopay/vendopay/pkg/db"
	"github.com/vendopay/vendopay/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     commissiondomain.Repository
	Orders   orderdomain.Store
	Vendors  vendordomain.Store
	Config   *config.CommissionConfigHolder
	Clock    clock.Clock
	AuditSvc auditdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    commissiondomain.Repository
	orders  orderdomain.Store
	vendors vendordomain.Store
	config  *config.CommissionConfigHolder
	clock   clock.Clock
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) commissiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("commission.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		orders:  p.Orders,
		vendors: p.Vendors,
		config:  p.Config,
		clock:   p.Clock,
		audit:   p.AuditSvc,
		metrics: p.Metrics,
	}
}

func (s *Service) CalculateForOrder(ctx context.Context, orderID string) (*commissiondomain.CalculationResult, error) {
	oid, err := commissiondomain.ParseID(strings.TrimSpace(orderID))
	if err != nil || oid == 0 {
		return nil, commissiondomain.ErrInvalidOrder
	}

	items, err := s.orders.GetOrderLineItems(ctx, oid)
	if err != nil {
		return nil, err
	}

	// One snapshot for the whole order so every line item sees the same rules.
	cfg := s.config.Get()

	result := &commissiondomain.CalculationResult{OrderID: oid.String()}
	for _, item := range items {
		vendorID := item.ResolveVendor()
		if vendorID == 0 {
			result.Skipped = append(result.Skipped, commissiondomain.SkippedItem{
				ProductID: item.ProductID.String(),
				Reason:    commissiondomain.SkipReasonNoVendor,
			})
			s.countSkip(commissiondomain.SkipReasonNoVendor)
			continue
		}

		resolution := s.resolveRate(ctx, vendorID, item.Category, cfg)
		saleAmount := item.SaleAmount()
		now := s.clock.Now()
		commission := commissiondomain.Commission{
			ID:           s.genID.Generate(),
			VendorID:     vendorID,
			OrderID:      oid,
			ProductID:    item.ProductID,
			Category:     item.Category,
			SaleAmount:   saleAmount,
			Rate:         resolution.Rate,
			Amount:       commissiondomain.AmountFor(saleAmount, resolution.Rate),
			Status:       commissiondomain.StatusCalculated,
			CreatedAt:    now,
			CalculatedAt: &now,
			UpdatedAt:    now,
		}

		if err := s.repo.Insert(ctx, s.db, &commission); err != nil {
			if db.IsDuplicateKeyErr(err) {
				result.Skipped = append(result.Skipped, commissiondomain.SkippedItem{
					ProductID: item.ProductID.String(),
					Reason:    commissiondomain.SkipReasonAlreadyCalculated,
				})
				s.countSkip(commissiondomain.SkipReasonAlreadyCalculated)
				continue
			}
			// Per-item persistence failures do not abort the rest of the order.
			s.log.Warn("failed to persist commission",
				zap.String("order_id", oid.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
			result.Skipped = append(result.Skipped, commissiondomain.SkippedItem{
				ProductID: item.ProductID.String(),
				Reason:    commissiondomain.SkipReasonPersistFailed,
			})
			s.countSkip(commissiondomain.SkipReasonPersistFailed)
			continue
		}

		if s.metrics != nil {
			s.metrics.CommissionsCalculated.Inc()
		}
		result.Commissions = append(result.Commissions, *toResponse(&commission))
	}

	return result, nil
}

func (s *Service) ResolveRate(ctx context.Context, req commissiondomain.ResolveRateRequest) (*commissiondomain.RateResolution, error) {
	vendorID, err := commissiondomain.ParseID(strings.TrimSpace(req.VendorID))
	if err != nil || vendorID == 0 {
		return nil, commissiondomain.ErrInvalidVendor
	}

	resolution := s.resolveRate(ctx, vendorID, req.Category, s.config.Get())
	return &resolution, nil
}

func (s *Service) MarkDisputed(ctx context.Context, req commissiondomain.MarkDisputedRequest) (*commissiondomain.Response, error) {
	id, err := commissiondomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, commissiondomain.ErrInvalidID
	}

	commission, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, commissiondomain.ErrNotFound
	}
	if !commissiondomain.CanTransition(commission.Status, commissiondomain.StatusDisputed) {
		return nil, commissiondomain.ErrInvalidTransition
	}

	previous := commission.Status
	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, id, commissiondomain.StatusDisputed, now); err != nil {
		return nil, err
	}
	commission.Status = commissiondomain.StatusDisputed
	commission.UpdatedAt = now

	targetID := id.String()
	_ = s.audit.AuditLog(ctx, &commission.VendorID, "commission.disputed", "commission", &targetID, map[string]any{
		"reason":          strings.TrimSpace(req.Reason),
		"previous_status": string(previous),
	})
	if s.metrics != nil {
		s.metrics.CommissionsDisputed.Inc()
	}

	return toResponse(commission), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*commissiondomain.Response, error) {
	cid, err := commissiondomain.ParseID(strings.TrimSpace(id))
	if err != nil || cid == 0 {
		return nil, commissiondomain.ErrInvalidID
	}
	commission, err := s.repo.FindByID(ctx, s.db, cid)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, commissiondomain.ErrNotFound
	}
	return toResponse(commission), nil
}

func (s *Service) List(ctx context.Context, req commissiondomain.ListRequest) (commissiondomain.ListResponse, error) {
	vendorID, err := commissiondomain.ParseID(strings.TrimSpace(req.VendorID))
	if err != nil || vendorID == 0 {
		return commissiondomain.ListResponse{}, commissiondomain.ErrInvalidVendor
	}

	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return commissiondomain.ListResponse{}, commissiondomain.ErrInvalidTimeRange
	}

	var status commissiondomain.Status
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		status = commissiondomain.Status(trimmed)
		switch status {
		case commissiondomain.StatusPending, commissiondomain.StatusCalculated,
			commissiondomain.StatusPaid, commissiondomain.StatusDisputed:
		default:
			return commissiondomain.ListResponse{}, commissiondomain.ErrInvalidStatus
		}
	}

	var productID snowflake.ID
	if trimmed := strings.TrimSpace(req.ProductID); trimmed != "" {
		productID, err = commissiondomain.ParseID(trimmed)
		if err != nil {
			return commissiondomain.ListResponse{}, commissiondomain.ErrInvalidID
		}
	}

	var cursor *commissiondomain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return commissiondomain.ListResponse{}, commissiondomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return commissiondomain.ListResponse{}, commissiondomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return commissiondomain.ListResponse{}, commissiondomain.ErrInvalidPageToken
		}
		cursor = &commissiondomain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, commissiondomain.ListFilter{
		VendorID:  vendorID,
		Status:    status,
		ProductID: productID,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Cursor:    cursor,
		Limit:     pageSize,
	})
	if err != nil {
		return commissiondomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *commissiondomain.Commission) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	commissions := make([]commissiondomain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		commissions = append(commissions, *toResponse(item))
	}

	resp := commissiondomain.ListResponse{Commissions: commissions}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) countSkip(reason string) {
	if s.metrics != nil {
		s.metrics.CommissionsSkipped.WithLabelValues(reason).Inc()
	}
}

func toResponse(c *commissiondomain.Commission) *commissiondomain.Response {
	resp := &commissiondomain.Response{
		ID:           c.ID.String(),
		VendorID:     c.VendorID.String(),
		OrderID:      c.OrderID.String(),
		ProductID:    c.ProductID.String(),
		Category:     c.Category,
		SaleAmount:   c.SaleAmount,
		Rate:         c.Rate,
		Amount:       c.Amount,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		CalculatedAt: c.CalculatedAt,
		PaidAt:       c.PaidAt,
	}
	if c.PayoutID != nil {
		resp.PayoutID = c.PayoutID.String()
	}
	return resp
}
