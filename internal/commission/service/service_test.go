package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	commissionrepo "github.com/vendopay/vendopay/internal/commission/repository"
	"github.com/vendopay/vendopay/internal/clock"
	"github.com/vendopay/vendopay/internal/config"
	"github.com/vendopay/vendopay/internal/migration"
	orderdomain "github.com/vendopay/vendopay/internal/order/domain"
	orderrepo "github.com/vendopay/vendopay/internal/order/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubVendorStore struct {
	total    int64
	totalErr error
	score    float64
	scoreErr error
}

func (s *stubVendorStore) PaidSalesTotal(ctx context.Context, vendorID snowflake.ID) (int64, error) {
	return s.total, s.totalErr
}

func (s *stubVendorStore) PerformanceScore(ctx context.Context, vendorID snowflake.ID) (float64, error) {
	return s.score, s.scoreErr
}

type noopAudit struct{}

func (noopAudit) AuditLog(ctx context.Context, vendorID *snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func testConfig() config.CommissionConfig {
	silverMax := int64(499_999)
	bronzeMax := int64(99_999)
	return config.CommissionConfig{
		Version:     "test-1",
		DefaultRate: 0.10,
		MaxRate:     0.30,
		Tiers: []config.CommissionTier{
			{Name: "bronze", MinSales: 0, MaxSales: &bronzeMax, Rate: 0.15},
			{Name: "silver", MinSales: 100_000, MaxSales: &silverMax, Rate: 0.12},
			{Name: "gold", MinSales: 500_000, Rate: 0.10},
		},
		CategoryRates: map[string]float64{
			"electronics": 0.12,
			"luxury":      0.28,
		},
		BonusesEnabled: true,
		PerformanceBonuses: []config.PerformanceBonus{
			{MinScore: 75, Bonus: 0.02},
			{MinScore: 90, Bonus: 0.05},
		},
		PayoutFeeRate:      0.025,
		RecalcEpsilonCents: 1,
	}
}

type env struct {
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	vendors *stubVendorStore
	holder  *config.CommissionConfigHolder
	repo    commissiondomain.Repository
	svc     commissiondomain.Service
}

func newEnv(t *testing.T, opts ...func(*Params)) *env {
	t.Helper()

	db := newTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	e := &env{
		db:      db,
		node:    node,
		clock:   clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		vendors: &stubVendorStore{},
		holder:  config.NewStaticCommissionConfigHolder(testConfig()),
		repo:    commissionrepo.Provide(),
	}
	params := Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     e.repo,
		Orders:   orderrepo.Provide(orderrepo.Params{DB: db}),
		Vendors:  e.vendors,
		Config:   e.holder,
		Clock:    e.clock,
		AuditSvc: noopAudit{},
	}
	for _, opt := range opts {
		opt(&params)
	}
	e.svc = NewService(params)
	return e
}

func (e *env) seedLineItem(t *testing.T, item orderdomain.OrderLineItem) orderdomain.OrderLineItem {
	t.Helper()
	if item.ID == 0 {
		item.ID = e.node.Generate()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = e.clock.Now()
	}
	require.NoError(t, e.db.Create(&item).Error)
	return item
}

func (e *env) seedCommission(t *testing.T, c commissiondomain.Commission) commissiondomain.Commission {
	t.Helper()
	if c.ID == 0 {
		c.ID = e.node.Generate()
	}
	if c.OrderID == 0 {
		c.OrderID = e.node.Generate()
	}
	if c.ProductID == 0 {
		c.ProductID = e.node.Generate()
	}
	if c.Status == "" {
		c.Status = commissiondomain.StatusCalculated
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = e.clock.Now()
	}
	c.UpdatedAt = c.CreatedAt
	require.NoError(t, e.repo.Insert(context.Background(), e.db, &c))
	return c
}

func (e *env) commissionCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Raw(`SELECT COUNT(*) FROM commissions`).Scan(&n).Error)
	return n
}

func TestCalculateForOrderCreatesCommissions(t *testing.T) {
	e := newEnv(t)
	e.vendors.total = 50_000 // bronze
	e.vendors.score = 70     // below every bonus threshold

	vendorID := e.node.Generate()
	orderID := e.node.Generate()
	e.seedLineItem(t, orderdomain.OrderLineItem{
		OrderID:   orderID,
		ProductID: e.node.Generate(),
		Category:  "electronics",
		UnitPrice: 500,
		Quantity:  2,
		VendorID:  vendorID,
	})
	e.seedLineItem(t, orderdomain.OrderLineItem{
		OrderID:   orderID,
		ProductID: e.node.Generate(),
		Category:  "books",
		UnitPrice: 2000,
		Quantity:  1,
		VendorID:  vendorID,
	})

	result, err := e.svc.CalculateForOrder(context.Background(), orderID.String())
	require.NoError(t, err)
	require.Len(t, result.Commissions, 2)
	assert.Empty(t, result.Skipped)

	// Bronze base 0.15; the electronics override 0.12 is lower and ignored.
	first := result.Commissions[0]
	assert.Equal(t, int64(1000), first.SaleAmount)
	assert.InDelta(t, 0.15, first.Rate, 1e-9)
	assert.Equal(t, int64(150), first.Amount)
	assert.Equal(t, commissiondomain.StatusCalculated, first.Status)
	require.NotNil(t, first.CalculatedAt)

	second := result.Commissions[1]
	assert.Equal(t, int64(2000), second.SaleAmount)
	assert.Equal(t, int64(300), second.Amount)

	assert.Equal(t, int64(2), e.commissionCount(t))
}

func TestCalculateForOrderIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.vendors.total = 50_000

	vendorID := e.node.Generate()
	orderID := e.node.Generate()
	e.seedLineItem(t, orderdomain.OrderLineItem{
		OrderID:   orderID,
		ProductID: e.node.Generate(),
		Category:  "books",
		UnitPrice: 1000,
		Quantity:  1,
		VendorID:  vendorID,
	})

	first, err := e.svc.CalculateForOrder(context.Background(), orderID.String())
	require.NoError(t, err)
	require.Len(t, first.Commissions, 1)

	second, err := e.svc.CalculateForOrder(context.Background(), orderID.String())
	require.NoError(t, err)
	assert.Empty(t, second.Commissions)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, commissiondomain.SkipReasonAlreadyCalculated, second.Skipped[0].Reason)

	assert.Equal(t, int64(1), e.commissionCount(t))
}

func TestCalculateForOrderSkipsUnresolvableVendor(t *testing.T) {
	e := newEnv(t)

	orderID := e.node.Generate()
	orphan := e.seedLineItem(t, orderdomain.OrderLineItem{
		OrderID:   orderID,
		ProductID: e.node.Generate(),
		Category:  "books",
		UnitPrice: 1000,
		Quantity:  1,
	})

	result, err := e.svc.CalculateForOrder(context.Background(), orderID.String())
	require.NoError(t, err)
	assert.Empty(t, result.Commissions)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, orphan.ProductID.String(), result.Skipped[0].ProductID)
	assert.Equal(t, commissiondomain.SkipReasonNoVendor, result.Skipped[0].Reason)
}

func TestCalculateForOrderResolvesLegacyVendorColumns(t *testing.T) {
	e := newEnv(t)
	e.vendors.total = 50_000

	sellerID := e.node.Generate()
	orderID := e.node.Generate()
	e.seedLineItem(t, orderdomain.OrderLineItem{
		OrderID:   orderID,
		ProductID: e.node.Generate(),
		Category:  "books",
		UnitPrice: 1000,
		Quantity:  1,
		SellerID:  sellerID,
	})

	result, err := e.svc.CalculateForOrder(context.Background(), orderID.String())
	require.NoError(t, err)
	require.Len(t, result.Commissions, 1)
	assert.Equal(t, sellerID.String(), result.Commissions[0].VendorID)
}

func TestCalculateForOrderRejectsBadOrderID(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CalculateForOrder(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidOrder)

	_, err = e.svc.CalculateForOrder(context.Background(), "")
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidOrder)
}

func TestMarkDisputed(t *testing.T) {
	e := newEnv(t)
	vendorID := e.node.Generate()

	calculated := e.seedCommission(t, commissiondomain.Commission{
		VendorID:   vendorID,
		SaleAmount: 1000,
		Rate:       0.10,
		Amount:     100,
	})

	resp, err := e.svc.MarkDisputed(context.Background(), commissiondomain.MarkDisputedRequest{
		ID:     calculated.ID.String(),
		Reason: "chargeback",
	})
	require.NoError(t, err)
	assert.Equal(t, commissiondomain.StatusDisputed, resp.Status)

	stored, err := e.repo.FindByID(context.Background(), e.db, calculated.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, commissiondomain.StatusDisputed, stored.Status)

	// Disputed is terminal.
	_, err = e.svc.MarkDisputed(context.Background(), commissiondomain.MarkDisputedRequest{
		ID: calculated.ID.String(),
	})
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidTransition)
}

func TestMarkDisputedFromPaid(t *testing.T) {
	e := newEnv(t)

	paid := e.seedCommission(t, commissiondomain.Commission{
		VendorID:   e.node.Generate(),
		SaleAmount: 1000,
		Rate:       0.10,
		Amount:     100,
		Status:     commissiondomain.StatusPaid,
	})

	resp, err := e.svc.MarkDisputed(context.Background(), commissiondomain.MarkDisputedRequest{
		ID:     paid.ID.String(),
		Reason: "fraud review",
	})
	require.NoError(t, err)
	assert.Equal(t, commissiondomain.StatusDisputed, resp.Status)
}

func TestMarkDisputedRejectsPending(t *testing.T) {
	e := newEnv(t)

	pending := e.seedCommission(t, commissiondomain.Commission{
		VendorID:   e.node.Generate(),
		SaleAmount: 1000,
		Rate:       0.10,
		Amount:     100,
		Status:     commissiondomain.StatusPending,
	})

	_, err := e.svc.MarkDisputed(context.Background(), commissiondomain.MarkDisputedRequest{
		ID: pending.ID.String(),
	})
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidTransition)
}

func TestMarkDisputedNotFound(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.MarkDisputed(context.Background(), commissiondomain.MarkDisputedRequest{
		ID: e.node.Generate().String(),
	})
	assert.ErrorIs(t, err, commissiondomain.ErrNotFound)
}

func TestListPaginatesWithCursor(t *testing.T) {
	e := newEnv(t)
	vendorID := e.node.Generate()

	for i := 0; i < 3; i++ {
		e.seedCommission(t, commissiondomain.Commission{
			VendorID:   vendorID,
			SaleAmount: 1000,
			Rate:       0.10,
			Amount:     100,
		})
		e.clock.Advance(time.Minute)
	}

	req := commissiondomain.ListRequest{VendorID: vendorID.String()}
	req.PageSize = 2

	page, err := e.svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Commissions, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	// Newest first.
	assert.True(t, page.Commissions[0].CreatedAt.After(page.Commissions[1].CreatedAt))

	req.PageToken = page.NextPageToken
	rest, err := e.svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, rest.Commissions, 1)
	assert.False(t, rest.HasMore)
}

func TestListFiltersByStatus(t *testing.T) {
	e := newEnv(t)
	vendorID := e.node.Generate()

	e.seedCommission(t, commissiondomain.Commission{
		VendorID: vendorID, SaleAmount: 1000, Rate: 0.10, Amount: 100,
	})
	paid := e.seedCommission(t, commissiondomain.Commission{
		VendorID: vendorID, SaleAmount: 2000, Rate: 0.10, Amount: 200,
		Status: commissiondomain.StatusPaid,
	})

	req := commissiondomain.ListRequest{
		VendorID: vendorID.String(),
		Status:   string(commissiondomain.StatusPaid),
	}
	page, err := e.svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Commissions, 1)
	assert.Equal(t, paid.ID.String(), page.Commissions[0].ID)
}

func TestListValidation(t *testing.T) {
	e := newEnv(t)
	vendorID := e.node.Generate().String()

	_, err := e.svc.List(context.Background(), commissiondomain.ListRequest{VendorID: "nope"})
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidVendor)

	_, err = e.svc.List(context.Background(), commissiondomain.ListRequest{
		VendorID: vendorID,
		Status:   "exploded",
	})
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidStatus)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-24 * time.Hour)
	_, err = e.svc.List(context.Background(), commissiondomain.ListRequest{
		VendorID: vendorID,
		DateFrom: &from,
		DateTo:   &to,
	})
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidTimeRange)

	badToken := commissiondomain.ListRequest{VendorID: vendorID}
	badToken.PageToken = "%%%not-base64%%%"
	_, err = e.svc.List(context.Background(), badToken)
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidPageToken)
}

func TestGetByID(t *testing.T) {
	e := newEnv(t)

	seeded := e.seedCommission(t, commissiondomain.Commission{
		VendorID:   e.node.Generate(),
		SaleAmount: 1000,
		Rate:       0.12,
		Amount:     120,
	})

	resp, err := e.svc.GetByID(context.Background(), seeded.ID.String())
	require.NoError(t, err)
	assert.Equal(t, seeded.ID.String(), resp.ID)
	assert.Equal(t, int64(120), resp.Amount)

	_, err = e.svc.GetByID(context.Background(), e.node.Generate().String())
	assert.ErrorIs(t, err, commissiondomain.ErrNotFound)

	_, err = e.svc.GetByID(context.Background(), "garbage")
	assert.ErrorIs(t, err, commissiondomain.ErrInvalidID)
}
