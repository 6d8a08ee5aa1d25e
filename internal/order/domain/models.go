package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderLineItem is one purchased product position on a paid order. Vendor
// identity may live under one of three legacy columns depending on which
// storefront wrote the row.
type OrderLineItem struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID    snowflake.ID `json:"order_id" gorm:"not null;index"`
	ProductID  snowflake.ID `json:"product_id" gorm:"not null"`
	Category   string       `json:"category" gorm:"type:text"`
	UnitPrice  int64        `json:"unit_price" gorm:"not null"`
	Quantity   int64        `json:"quantity" gorm:"not null"`
	VendorID   snowflake.ID `json:"vendor_id" gorm:"index"`
	SellerID   snowflake.ID `json:"seller_id"`
	MerchantID snowflake.ID `json:"merchant_id"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OrderLineItem) TableName() string { return "order_line_items" }

// ResolveVendor returns the owning vendor, trying the legacy identity columns
// in fixed order: vendor_id, then seller_id, then merchant_id. Zero means the
// line item has no resolvable vendor.
func (i OrderLineItem) ResolveVendor() snowflake.ID {
	for _, id := range []snowflake.ID{i.VendorID, i.SellerID, i.MerchantID} {
		if id != 0 {
			return id
		}
	}
	return 0
}

// SaleAmount is the buyer-paid amount for the line item in cents.
func (i OrderLineItem) SaleAmount() int64 {
	return i.UnitPrice * i.Quantity
}

// Store yields the purchased line items of an order.
type Store interface {
	GetOrderLineItems(ctx context.Context, orderID snowflake.ID) ([]OrderLineItem, error)
}

var (
	ErrOrderNotFound = errors.New("order_not_found")
)
