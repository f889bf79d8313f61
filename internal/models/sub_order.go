package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubOrderStatus represents the coarse status of one shop's portion of
// a marketplace order. The return engine only writes the three mirrored
// return statuses; the rest belong to the order fulfillment flow.
type SubOrderStatus string

const (
	SubOrderStatusPlaced          SubOrderStatus = "PLACED"
	SubOrderStatusConfirmed       SubOrderStatus = "CONFIRMED"
	SubOrderStatusShipped         SubOrderStatus = "SHIPPED"
	SubOrderStatusDelivered       SubOrderStatus = "DELIVERED"
	SubOrderStatusCompleted       SubOrderStatus = "COMPLETED"
	SubOrderStatusCancelled       SubOrderStatus = "CANCELLED"
	SubOrderStatusReturnRequested SubOrderStatus = "RETURN_REQUESTED" // Mirrored: active return claim exists
	SubOrderStatusReturnApproved  SubOrderStatus = "RETURN_APPROVED"  // Mirrored: claim approved by shop or admin
	SubOrderStatusReturned        SubOrderStatus = "RETURNED"         // Mirrored: refund processed / claim completed
)

// SubOrder is one shop's portion of a multi-shop order. Owned by the
// order subsystem; the return engine reads it and mirrors coarse status.
type SubOrder struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID        uuid.UUID      `json:"orderId" gorm:"type:uuid;not null;index"`
	SubOrderNumber string         `json:"subOrderNumber" gorm:"not null;uniqueIndex"`
	ShopID         uuid.UUID      `json:"shopId" gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID      `json:"customerId" gorm:"type:uuid;not null;index"`
	Status         SubOrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'PLACED'"`

	Currency     string          `json:"currency" gorm:"type:varchar(3);not null;default:'VND'"`
	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	ShippingFee  decimal.Decimal `json:"shippingFee" gorm:"type:decimal(12,2);default:0"`
	Total        decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	DeliveredAt  *time.Time      `json:"deliveredAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:SubOrderID"`
}

// OrderItem is the source of truth for quantities and prices at order
// time. Read-only from the return engine's point of view.
type OrderItem struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SubOrderID uuid.UUID  `json:"subOrderId" gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID  `json:"productId" gorm:"type:uuid;not null"`
	VariantID  *uuid.UUID `json:"variantId,omitempty" gorm:"type:uuid"`

	ProductName  string `json:"productName" gorm:"not null"`
	ProductImage string `json:"productImage,omitempty" gorm:"type:varchar(500)"`
	VariantName  string `json:"variantName,omitempty" gorm:"type:varchar(255)"`

	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time `json:"createdAt"`
}

// Shop holds the display info joined into return list/detail responses
type Shop struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name    string    `json:"name" gorm:"not null"`
	LogoURL string    `json:"logoUrl,omitempty" gorm:"type:varchar(500)"`
}

// Customer holds the display info joined into return list/detail responses
type Customer struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name  string    `json:"name" gorm:"not null"`
	Email string    `json:"email" gorm:"not null"`
	Phone string    `json:"phone,omitempty"`
}

// TableName specifies the table name for SubOrder
func (SubOrder) TableName() string {
	return "sub_orders"
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// TableName specifies the table name for Shop
func (Shop) TableName() string {
	return "shops"
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// IsReturnable reports whether a return claim may be opened against
// this sub-order. Only delivered or completed sub-orders qualify.
func (s *SubOrder) IsReturnable() bool {
	return s.Status == SubOrderStatusDelivered || s.Status == SubOrderStatusCompleted
}
