package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/vendopay/vendopay/internal/order/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB *gorm.DB
}

type store struct {
	db *gorm.DB
}

func Provide(p Params) orderdomain.Store {
	return &store{db: p.DB}
}

func (s *store) GetOrderLineItems(ctx context.Context, orderID snowflake.ID) ([]orderdomain.OrderLineItem, error) {
	var items []orderdomain.OrderLineItem
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, category, unit_price, quantity, vendor_id, seller_id, merchant_id, created_at
		 FROM order_line_items WHERE order_id = ? ORDER BY id ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
