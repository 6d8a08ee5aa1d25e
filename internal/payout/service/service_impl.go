package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/vendopay/vendopay/internal/audit/domain"
	"github.com/vendopay/vendopay/internal/clock"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	"github.com/vendopay/vendopay/internal/config"
	"github.com/vendopay/vendopay/internal/metrics"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
	"github.com/vendopay/vendopay/internal/payout/settlement"
	"github.com/vendopay/vendopay/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        payoutdomain.Repository
	Commissions commissiondomain.Repository
	Config      *config.CommissionConfigHolder
	Clock       clock.Clock
	AuditSvc    auditdomain.Service
	Settlements *settlement.Registry
	Metrics     *metrics.Metrics `optional:"true"`
	Locker      *lock.Locker     `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        payoutdomain.Repository
	commissions commissiondomain.Repository
	config      *config.CommissionConfigHolder
	clock       clock.Clock
	audit       auditdomain.Service
	settlements *settlement.Registry
	metrics     *metrics.Metrics
	locker      *lock.Locker
}

func NewService(p Params) payoutdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payout.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		commissions: p.Commissions,
		config:      p.Config,
		clock:       p.Clock,
		audit:       p.AuditSvc,
		settlements: p.Settlements,
		metrics:     p.Metrics,
		locker:      p.Locker,
	}
}

const vendorLockTTL = 30 * time.Second

func (s *Service) CreatePayout(ctx context.Context, req payoutdomain.CreatePayoutRequest) (*payoutdomain.Response, error) {
	vendorID, err := payoutdomain.ParseID(strings.TrimSpace(req.VendorID))
	if err != nil || vendorID == 0 {
		return nil, payoutdomain.ErrInvalidVendor
	}
	if len(req.CommissionIDs) == 0 {
		return nil, payoutdomain.ErrEmptySelection
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = payoutdomain.MethodBankTransfer
	}
	if !s.settlements.MethodExists(method) {
		return nil, payoutdomain.ErrInvalidPaymentMethod
	}

	ids := make([]snowflake.ID, 0, len(req.CommissionIDs))
	seen := make(map[snowflake.ID]struct{}, len(req.CommissionIDs))
	for _, raw := range req.CommissionIDs {
		id, err := payoutdomain.ParseID(strings.TrimSpace(raw))
		if err != nil || id == 0 {
			return nil, payoutdomain.ErrInvalidID
		}
		if _, dup := seen[id]; dup {
			return nil, payoutdomain.ErrInvalidID
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	// Best-effort per-vendor serialization. The conditional claim below is
	// the actual correctness guarantee; the lock just avoids needless
	// transaction aborts when two batchers target the same vendor.
	if s.locker != nil {
		key := "vendopay:payout:vendor:" + vendorID.String()
		token, ok, err := s.locker.TryLock(ctx, key, vendorLockTTL)
		if err != nil {
			s.log.Warn("vendor payout lock unavailable", zap.Error(err))
		} else if !ok {
			return nil, payoutdomain.ErrVendorLocked
		} else {
			defer func() {
				_ = s.locker.Release(ctx, key, token)
			}()
		}
	}

	selected, err := s.commissions.FindForVendor(ctx, s.db, vendorID, ids)
	if err != nil {
		return nil, err
	}
	if len(selected) != len(ids) {
		return nil, payoutdomain.ErrCommissionNotFound
	}

	var totalAmount int64
	var periodStart, periodEnd time.Time
	for _, c := range selected {
		if c.Status != commissiondomain.StatusCalculated || c.PayoutID != nil {
			return nil, payoutdomain.ErrCommissionNotEligible
		}
		totalAmount += c.Amount
		if periodStart.IsZero() || c.CreatedAt.Before(periodStart) {
			periodStart = c.CreatedAt
		}
		if c.CreatedAt.After(periodEnd) {
			periodEnd = c.CreatedAt
		}
	}

	cfg := s.config.Get()
	feeAmount := commissiondomain.AmountFor(totalAmount, cfg.PayoutFeeRate)
	now := s.clock.Now()

	payout := payoutdomain.Payout{
		ID:              s.genID.Generate(),
		Number:          "po_" + ulid.Make().String(),
		VendorID:        vendorID,
		TotalAmount:     totalAmount,
		CommissionCount: len(selected),
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		FeeRate:         cfg.PayoutFeeRate,
		FeeAmount:       feeAmount,
		NetAmount:       totalAmount - feeAmount,
		Status:          payoutdomain.StatusPending,
		PaymentMethod:   method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Payout insert and every claim share one transaction: losing a single
	// claim race rolls the whole payout back, so no payout can reference
	// fewer commissions than its totals assume.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &payout); err != nil {
			return err
		}
		for _, id := range ids {
			claimed, err := s.commissions.Claim(ctx, tx, id, vendorID, payout.ID, now)
			if err != nil {
				return err
			}
			if !claimed {
				return payoutdomain.ErrClaimConflict
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	targetID := payout.ID.String()
	_ = s.audit.AuditLog(ctx, &vendorID, "payout.created", "payout", &targetID, map[string]any{
		"number":           payout.Number,
		"commission_count": payout.CommissionCount,
		"total_amount":     payout.TotalAmount,
		"net_amount":       payout.NetAmount,
		"payment_method":   method,
	})
	if s.metrics != nil {
		s.metrics.PayoutsCreated.Inc()
	}

	s.log.Info("payout created",
		zap.String("payout_id", payout.ID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.Int64("net_amount", payout.NetAmount),
		zap.Int("commissions", payout.CommissionCount),
	)

	return toResponse(&payout), nil
}

func (s *Service) ProcessPayout(ctx context.Context, req payoutdomain.ProcessPayoutRequest) (*payoutdomain.Response, error) {
	id, err := payoutdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, payoutdomain.ErrInvalidID
	}

	payout, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, payoutdomain.ErrNotFound
	}
	if !payoutdomain.CanTransition(payout.Status, payoutdomain.StatusCompleted) {
		return nil, payoutdomain.ErrInvalidTransition
	}

	reference := strings.TrimSpace(req.PaymentReference)
	if reference == "" {
		settler, ok := s.settlements.For(payout.PaymentMethod)
		if !ok {
			return nil, payoutdomain.ErrInvalidPaymentMethod
		}
		reference, err = settler.Settle(ctx, *payout)
		if err != nil {
			s.log.Error("settlement failed",
				zap.String("payout_id", payout.ID.String()),
				zap.String("method", payout.PaymentMethod),
				zap.Error(err),
			)
			if _, failErr := s.failInternal(ctx, payout, err.Error()); failErr != nil {
				return nil, failErr
			}
			return nil, payoutdomain.ErrSettlementFailed
		}
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatus(ctx, tx, payout.ID, payoutdomain.StatusUpdate{
			Status:           payoutdomain.StatusCompleted,
			PaymentReference: &reference,
			ProcessedAt:      &now,
		}, now); err != nil {
			return err
		}
		return s.commissions.MarkPaidByPayout(ctx, tx, payout.ID, now)
	})
	if err != nil {
		return nil, err
	}

	payout.Status = payoutdomain.StatusCompleted
	payout.PaymentReference = &reference
	payout.ProcessedAt = &now
	payout.UpdatedAt = now

	targetID := payout.ID.String()
	_ = s.audit.AuditLog(ctx, &payout.VendorID, "payout.completed", "payout", &targetID, map[string]any{
		"payment_reference": reference,
		"net_amount":        payout.NetAmount,
	})
	if s.metrics != nil {
		s.metrics.PayoutsCompleted.Inc()
	}

	return toResponse(payout), nil
}

func (s *Service) FailPayout(ctx context.Context, req payoutdomain.FailPayoutRequest) (*payoutdomain.Response, error) {
	id, err := payoutdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, payoutdomain.ErrInvalidID
	}

	payout, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, payoutdomain.ErrNotFound
	}
	if !payoutdomain.CanTransition(payout.Status, payoutdomain.StatusFailed) {
		return nil, payoutdomain.ErrInvalidTransition
	}

	return s.failInternal(ctx, payout, strings.TrimSpace(req.Reason))
}

func (s *Service) CancelPayout(ctx context.Context, rawID string) (*payoutdomain.Response, error) {
	id, err := payoutdomain.ParseID(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, payoutdomain.ErrInvalidID
	}

	payout, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, payoutdomain.ErrNotFound
	}
	if !payoutdomain.CanTransition(payout.Status, payoutdomain.StatusCancelled) {
		return nil, payoutdomain.ErrInvalidTransition
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatus(ctx, tx, payout.ID, payoutdomain.StatusUpdate{
			Status: payoutdomain.StatusCancelled,
		}, now); err != nil {
			return err
		}
		return s.commissions.ReleaseClaims(ctx, tx, payout.ID, now)
	})
	if err != nil {
		return nil, err
	}

	payout.Status = payoutdomain.StatusCancelled
	payout.UpdatedAt = now

	targetID := payout.ID.String()
	_ = s.audit.AuditLog(ctx, &payout.VendorID, "payout.cancelled", "payout", &targetID, nil)
	if s.metrics != nil {
		s.metrics.PayoutsCancelled.Inc()
	}

	return toResponse(payout), nil
}

func (s *Service) List(ctx context.Context, rawVendorID string) ([]payoutdomain.Response, error) {
	vendorID, err := payoutdomain.ParseID(strings.TrimSpace(rawVendorID))
	if err != nil || vendorID == 0 {
		return nil, payoutdomain.ErrInvalidVendor
	}

	items, err := s.repo.ListByVendor(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	resp := make([]payoutdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (*payoutdomain.Response, error) {
	id, err := payoutdomain.ParseID(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, payoutdomain.ErrInvalidID
	}

	payout, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, payoutdomain.ErrNotFound
	}
	return toResponse(payout), nil
}

// failInternal moves the payout to failed and releases every claimed
// commission so an operator can batch them into a new attempt.
func (s *Service) failInternal(ctx context.Context, payout *payoutdomain.Payout, reason string) (*payoutdomain.Response, error) {
	now := s.clock.Now()
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatus(ctx, tx, payout.ID, payoutdomain.StatusUpdate{
			Status:        payoutdomain.StatusFailed,
			FailureReason: reasonPtr,
		}, now); err != nil {
			return err
		}
		return s.commissions.ReleaseClaims(ctx, tx, payout.ID, now)
	})
	if err != nil {
		return nil, err
	}

	payout.Status = payoutdomain.StatusFailed
	payout.FailureReason = reasonPtr
	payout.UpdatedAt = now

	targetID := payout.ID.String()
	_ = s.audit.AuditLog(ctx, &payout.VendorID, "payout.failed", "payout", &targetID, map[string]any{
		"reason": reason,
	})
	if s.metrics != nil {
		s.metrics.PayoutsFailed.Inc()
	}

	return toResponse(payout), nil
}

func toResponse(p *payoutdomain.Payout) *payoutdomain.Response {
	return &payoutdomain.Response{
		ID:               p.ID.String(),
		Number:           p.Number,
		VendorID:         p.VendorID.String(),
		TotalAmount:      p.TotalAmount,
		CommissionCount:  p.CommissionCount,
		PeriodStart:      p.PeriodStart,
		PeriodEnd:        p.PeriodEnd,
		FeeRate:          p.FeeRate,
		FeeAmount:        p.FeeAmount,
		NetAmount:        p.NetAmount,
		Status:           p.Status,
		PaymentMethod:    p.PaymentMethod,
		PaymentReference: p.PaymentReference,
		FailureReason:    p.FailureReason,
		CreatedAt:        p.CreatedAt,
		ProcessedAt:      p.ProcessedAt,
	}
}
