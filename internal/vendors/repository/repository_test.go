package repository

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
	"github.com/vendopay/vendopay/internal/migration"
	vendordomain "github.com/vendopay/vendopay/internal/vendors/domain"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) (vendordomain.Store, *gorm.DB, *snowflake.Node) {
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

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return Provide(Params{DB: db}), db, node
}

func TestPaidSalesTotalSumsOnlyPaid(t *testing.T) {
	store, db, node := newTestStore(t)
	vendorID := node.Generate()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []commissiondomain.Commission{
		{Status: commissiondomain.StatusPaid, SaleAmount: 30_000},
		{Status: commissiondomain.StatusPaid, SaleAmount: 20_000},
		{Status: commissiondomain.StatusCalculated, SaleAmount: 99_000},
		{Status: commissiondomain.StatusDisputed, SaleAmount: 5_000},
	}
	for i := range rows {
		rows[i].ID = node.Generate()
		rows[i].VendorID = vendorID
		rows[i].OrderID = node.Generate()
		rows[i].ProductID = node.Generate()
		rows[i].Rate = 0.10
		rows[i].Amount = rows[i].SaleAmount / 10
		rows[i].CreatedAt = now
		rows[i].UpdatedAt = now
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	// Another vendor's paid sales must not leak in.
	other := commissiondomain.Commission{
		ID: node.Generate(), VendorID: node.Generate(),
		OrderID: node.Generate(), ProductID: node.Generate(),
		SaleAmount: 77_000, Rate: 0.10, Amount: 7_700,
		Status: commissiondomain.StatusPaid, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&other).Error)

	total, err := store.PaidSalesTotal(context.Background(), vendorID)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), total)
}

func TestPaidSalesTotalZeroWithoutHistory(t *testing.T) {
	store, _, node := newTestStore(t)

	total, err := store.PaidSalesTotal(context.Background(), node.Generate())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPerformanceScoreUsesLatestSnapshot(t *testing.T) {
	store, db, node := newTestStore(t)
	vendorID := node.Generate()

	old := vendordomain.PerformanceSnapshot{
		ID: node.Generate(), VendorID: vendorID, OverallScore: 60,
		CapturedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	latest := vendordomain.PerformanceSnapshot{
		ID: node.Generate(), VendorID: vendorID, OverallScore: 91,
		CapturedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&latest).Error)

	score, err := store.PerformanceScore(context.Background(), vendorID)
	require.NoError(t, err)
	assert.InDelta(t, 91, score, 1e-9)
}

func TestPerformanceScoreMissingSnapshot(t *testing.T) {
	store, _, node := newTestStore(t)

	_, err := store.PerformanceScore(context.Background(), node.Generate())
	assert.ErrorIs(t, err, vendordomain.ErrNoPerformanceSnapshot)
}
