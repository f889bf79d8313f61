package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReturnStatus represents the status of a return request
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "PENDING"   // Submitted, awaiting shop review
	ReturnStatusApproved  ReturnStatus = "APPROVED"  // Approved, waiting for items to be shipped back
	ReturnStatusRejected  ReturnStatus = "REJECTED"  // Rejected by shop (or by admin after escalation)
	ReturnStatusEscalated ReturnStatus = "ESCALATED" // Customer appealed a rejection, awaiting admin decision
	ReturnStatusShipping  ReturnStatus = "SHIPPING"  // Customer shipped the items back
	ReturnStatusReceived  ReturnStatus = "RECEIVED"  // Shop received the returned items
	ReturnStatusRefunding ReturnStatus = "REFUNDING" // Refund in progress at the payment gateway
	ReturnStatusRefunded  ReturnStatus = "REFUNDED"  // Refund processed
	ReturnStatusCompleted ReturnStatus = "COMPLETED" // Terminal bookkeeping state
	ReturnStatusCancelled ReturnStatus = "CANCELLED" // Withdrawn by customer
)

// ActorType identifies which party performs a transition
type ActorType string

const (
	ActorCustomer ActorType = "customer"
	ActorShop     ActorType = "shop"
	ActorAdmin    ActorType = "admin"
	ActorSystem   ActorType = "system" // background jobs (expiry sweep, completion)
)

// RequestType represents what the customer is asking for
type RequestType string

const (
	RequestTypeReturn     RequestType = "RETURN"      // Ship items back + refund
	RequestTypeRefundOnly RequestType = "REFUND_ONLY" // Refund without shipping anything back
)

// ActiveReturnStatuses are the statuses that block a new request on the
// same sub-order. Rejected and the terminal statuses do not block.
var ActiveReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusApproved,
	ReturnStatusEscalated,
	ReturnStatusShipping,
	ReturnStatusReceived,
	ReturnStatusRefunding,
	ReturnStatusRefunded,
}

// ReturnRequest represents one return/refund claim against one sub-order
type ReturnRequest struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RequestNumber string    `json:"requestNumber" gorm:"not null;uniqueIndex:idx_return_requests_number"`
	OrderID       uuid.UUID `json:"orderId" gorm:"type:uuid;not null;index:idx_return_requests_order"`
	SubOrderID    uuid.UUID `json:"subOrderId" gorm:"type:uuid;not null;index:idx_return_requests_sub_order"`
	CustomerID    uuid.UUID `json:"customerId" gorm:"type:uuid;not null;index:idx_return_requests_customer"`
	ShopID        uuid.UUID `json:"shopId" gorm:"type:uuid;not null;index:idx_return_requests_shop;index:idx_return_requests_shop_status"`

	Status       ReturnStatus   `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index:idx_return_requests_shop_status"`
	Reason       ReturnReason   `json:"reason" gorm:"type:varchar(30);not null"`
	ReasonDetail string         `json:"reasonDetail" gorm:"type:text"`
	RequestType  RequestType    `json:"requestType" gorm:"type:varchar(20);not null;default:'RETURN'"`
	EvidenceURLs pq.StringArray `json:"evidenceUrls" gorm:"type:text[]"`

	// Computed at creation, only recalculated by explicit admin action
	RefundAmount        decimal.Decimal `json:"refundAmount" gorm:"type:decimal(12,2)"`
	RefundTransactionID string          `json:"refundTransactionId,omitempty" gorm:"type:varchar(100)"`

	// Shop response
	ShopResponse    string     `json:"shopResponse,omitempty" gorm:"type:text"`
	ShopRespondedAt *time.Time `json:"shopRespondedAt,omitempty"`
	ShopRespondedBy *uuid.UUID `json:"shopRespondedBy,omitempty" gorm:"type:uuid"`

	// Return shipping (inbound, customer -> shop)
	ReturnTrackingNumber string     `json:"returnTrackingNumber,omitempty" gorm:"type:varchar(100)"`
	ReturnShipper        string     `json:"returnShipper,omitempty" gorm:"type:varchar(100)"`
	ShippedAt            *time.Time `json:"shippedAt,omitempty"`
	ReceivedAt           *time.Time `json:"receivedAt,omitempty"`
	RefundedAt           *time.Time `json:"refundedAt,omitempty"`

	// Escalation
	EscalationReason       string         `json:"escalationReason,omitempty" gorm:"type:text"`
	EscalationEvidenceURLs pq.StringArray `json:"escalationEvidenceUrls,omitempty" gorm:"type:text[]"`
	EscalatedAt            *time.Time     `json:"escalatedAt,omitempty"`
	AdminNote              string         `json:"adminNote,omitempty" gorm:"type:text"`
	ResolvedBy             *uuid.UUID     `json:"resolvedBy,omitempty" gorm:"type:uuid"`
	ResolvedAt             *time.Time     `json:"resolvedAt,omitempty"`

	// Shop response SLA deadline, set at creation
	ExpiresAt time.Time `json:"expiresAt" gorm:"index:idx_return_requests_expires"`

	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_return_requests_created,sort:desc"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relationships
	Items    []ReturnRequestItem    `json:"items" gorm:"foreignKey:ReturnRequestID;constraint:OnDelete:CASCADE"`
	History  []ReturnRequestHistory `json:"history,omitempty" gorm:"foreignKey:ReturnRequestID;constraint:OnDelete:CASCADE"`
	Shop     *Shop                  `json:"shop,omitempty" gorm:"foreignKey:ShopID"`
	Customer *Customer              `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

// ReturnRequestItem is one order item line within a request. Display
// fields are denormalized at creation so the record stays self-contained
// after product edits. Created once, never mutated.
type ReturnRequestItem struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ReturnRequestID uuid.UUID  `json:"returnRequestId" gorm:"type:uuid;not null;index"`
	OrderItemID     uuid.UUID  `json:"orderItemId" gorm:"type:uuid;not null"`
	ProductID       uuid.UUID  `json:"productId" gorm:"type:uuid;not null"`
	VariantID       *uuid.UUID `json:"variantId,omitempty" gorm:"type:uuid"`

	ProductName  string `json:"productName" gorm:"not null"`
	ProductImage string `json:"productImage,omitempty" gorm:"type:varchar(500)"`
	VariantName  string `json:"variantName,omitempty" gorm:"type:varchar(255)"`

	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`

	// Optional per-item override for partial returns
	ItemReason       ReturnReason   `json:"itemReason,omitempty" gorm:"type:varchar(30)"`
	ItemEvidenceURLs pq.StringArray `json:"itemEvidenceUrls,omitempty" gorm:"type:text[]"`

	CreatedAt time.Time `json:"createdAt"`
}

// ReturnRequestHistory is an append-only ledger entry, exactly one per
// state transition including the creation row (empty fromStatus).
type ReturnRequestHistory struct {
	ID              uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ReturnRequestID uuid.UUID    `json:"returnRequestId" gorm:"type:uuid;not null;index"`
	FromStatus      ReturnStatus `json:"fromStatus" gorm:"type:varchar(20)"`
	ToStatus        ReturnStatus `json:"toStatus" gorm:"type:varchar(20);not null"`
	ActorType       ActorType    `json:"actorType" gorm:"type:varchar(20);not null"`
	ActorID         *uuid.UUID   `json:"actorId,omitempty" gorm:"type:uuid"`
	Note            string       `json:"note,omitempty" gorm:"type:text"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// BeforeCreate hook to generate the human-readable request number
func (r *ReturnRequest) BeforeCreate(tx *gorm.DB) error {
	if r.RequestNumber == "" {
		// RET-YYYYMMDD-XXXXXX (X from a fresh uuid)
		timestamp := time.Now().Format("20060102")
		randomPart := uuid.New().String()[:6]
		r.RequestNumber = "RET-" + timestamp + "-" + randomPart
	}
	return nil
}

// TableName specifies the table name for ReturnRequest
func (ReturnRequest) TableName() string {
	return "return_requests"
}

// TableName specifies the table name for ReturnRequestItem
func (ReturnRequestItem) TableName() string {
	return "return_request_items"
}

// TableName specifies the table name for ReturnRequestHistory
func (ReturnRequestHistory) TableName() string {
	return "return_request_history"
}

// NewHistoryEntry builds the ledger row for a transition on this request
func (r *ReturnRequest) NewHistoryEntry(from, to ReturnStatus, actor ActorType, actorID *uuid.UUID, note string) ReturnRequestHistory {
	return ReturnRequestHistory{
		ReturnRequestID: r.ID,
		FromStatus:      from,
		ToStatus:        to,
		ActorType:       actor,
		ActorID:         actorID,
		Note:            note,
		CreatedAt:       time.Now(),
	}
}

// IsActive reports whether this request blocks a new one on the same
// sub-order. Rejected requests can be escalated but do not block.
func (r *ReturnRequest) IsActive() bool {
	switch r.Status {
	case ReturnStatusRejected, ReturnStatusCancelled, ReturnStatusCompleted:
		return false
	}
	return true
}

// IsFinalized reports whether the request reached a terminal state
func (r *ReturnRequest) IsFinalized() bool {
	return IsTerminalReturnStatus(r.Status)
}
