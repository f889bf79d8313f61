package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"returns-service/internal/models"
)

// RequestedItem names one order item line of a partial return
type RequestedItem struct {
	OrderItemID  uuid.UUID           `json:"orderItemId" binding:"required"`
	Quantity     int                 `json:"quantity" binding:"required,gt=0"`
	Reason       models.ReturnReason `json:"reason,omitempty"`
	EvidenceURLs []string            `json:"evidenceUrls,omitempty"`
}

// RefundBreakdown is the calculator output: the total refund amount and
// the per-item rows the return request is created with.
type RefundBreakdown struct {
	Amount decimal.Decimal
	Items  []models.ReturnRequestItem
}

// CalculateRefund computes the refund for a claim against a sub-order.
// With no requested items the whole sub-order is returned and the
// amount is the unchanged sum of all order-item totals. With requested
// items, each line is unitPrice × requestedQuantity rounded half-even
// to the currency's two minor digits before summing. Quantities above
// the originally ordered quantity are rejected, not clamped.
func CalculateRefund(subOrder *models.SubOrder, requested []RequestedItem) (*RefundBreakdown, error) {
	if len(requested) == 0 {
		return calculateFullRefund(subOrder), nil
	}
	return calculatePartialRefund(subOrder, requested)
}

func calculateFullRefund(subOrder *models.SubOrder) *RefundBreakdown {
	breakdown := &RefundBreakdown{Amount: decimal.Zero}
	for _, item := range subOrder.Items {
		breakdown.Items = append(breakdown.Items, models.ReturnRequestItem{
			OrderItemID:  item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			VariantName:  item.VariantName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			TotalPrice:   item.TotalPrice,
		})
		breakdown.Amount = breakdown.Amount.Add(item.TotalPrice)
	}
	return breakdown
}

func calculatePartialRefund(subOrder *models.SubOrder, requested []RequestedItem) (*RefundBreakdown, error) {
	itemsByID := make(map[uuid.UUID]*models.OrderItem, len(subOrder.Items))
	for i := range subOrder.Items {
		itemsByID[subOrder.Items[i].ID] = &subOrder.Items[i]
	}

	breakdown := &RefundBreakdown{Amount: decimal.Zero}
	seen := make(map[uuid.UUID]bool, len(requested))

	for _, req := range requested {
		orderItem, ok := itemsByID[req.OrderItemID]
		if !ok {
			return nil, newValidationError("items", fmt.Sprintf("order item %s does not belong to this sub-order", req.OrderItemID))
		}
		if seen[req.OrderItemID] {
			return nil, newValidationError("items", fmt.Sprintf("order item %s requested more than once", req.OrderItemID))
		}
		seen[req.OrderItemID] = true

		if req.Quantity <= 0 {
			return nil, newValidationError("items", fmt.Sprintf("quantity for %s must be positive", orderItem.ProductName))
		}
		if req.Quantity > orderItem.Quantity {
			return nil, newValidationError("items", fmt.Sprintf("quantity %d for %s exceeds ordered quantity %d", req.Quantity, orderItem.ProductName, orderItem.Quantity))
		}

		lineTotal := orderItem.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).RoundBank(2)

		breakdown.Items = append(breakdown.Items, models.ReturnRequestItem{
			OrderItemID:      orderItem.ID,
			ProductID:        orderItem.ProductID,
			VariantID:        orderItem.VariantID,
			ProductName:      orderItem.ProductName,
			ProductImage:     orderItem.ProductImage,
			VariantName:      orderItem.VariantName,
			Quantity:         req.Quantity,
			UnitPrice:        orderItem.UnitPrice,
			TotalPrice:       lineTotal,
			ItemReason:       req.Reason,
			ItemEvidenceURLs: req.EvidenceURLs,
		})
		breakdown.Amount = breakdown.Amount.Add(lineTotal)
	}

	return breakdown, nil
}
