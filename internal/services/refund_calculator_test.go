package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"returns-service/internal/models"
)

func testSubOrder() *models.SubOrder {
	return &models.SubOrder{
		ID: uuid.New(),
		Items: []models.OrderItem{
			{
				ID:          uuid.New(),
				ProductName: "Ceramic Mug",
				Quantity:    3,
				UnitPrice:   decimal.RequireFromString("12.50"),
				TotalPrice:  decimal.RequireFromString("37.50"),
			},
			{
				ID:          uuid.New(),
				ProductName: "Tea Towel",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("8.99"),
				TotalPrice:  decimal.RequireFromString("17.98"),
			},
		},
	}
}

func TestCalculateRefund_FullReturn(t *testing.T) {
	subOrder := testSubOrder()

	breakdown, err := CalculateRefund(subOrder, nil)

	assert.NoError(t, err)
	assert.True(t, breakdown.Amount.Equal(decimal.RequireFromString("55.48")),
		"got %s", breakdown.Amount)
	assert.Len(t, breakdown.Items, 2)
	// Full return carries the original line totals unchanged
	assert.True(t, breakdown.Items[0].TotalPrice.Equal(subOrder.Items[0].TotalPrice))
	assert.Equal(t, 3, breakdown.Items[0].Quantity)
}

func TestCalculateRefund_PartialReturn(t *testing.T) {
	subOrder := testSubOrder()

	breakdown, err := CalculateRefund(subOrder, []RequestedItem{
		{OrderItemID: subOrder.Items[0].ID, Quantity: 2},
	})

	assert.NoError(t, err)
	assert.True(t, breakdown.Amount.Equal(decimal.RequireFromString("25.00")),
		"got %s", breakdown.Amount)
	assert.Len(t, breakdown.Items, 1)
	assert.Equal(t, 2, breakdown.Items[0].Quantity)
}

func TestCalculateRefund_PartialReturnRoundsHalfEven(t *testing.T) {
	subOrder := &models.SubOrder{
		ID: uuid.New(),
		Items: []models.OrderItem{
			{
				ID:          uuid.New(),
				ProductName: "Sticker",
				Quantity:    5,
				UnitPrice:   decimal.RequireFromString("0.335"),
				TotalPrice:  decimal.RequireFromString("1.675"),
			},
		},
	}

	breakdown, err := CalculateRefund(subOrder, []RequestedItem{
		{OrderItemID: subOrder.Items[0].ID, Quantity: 3},
	})

	assert.NoError(t, err)
	// 0.335 * 3 = 1.005, half-even at two digits gives 1.00
	assert.True(t, breakdown.Amount.Equal(decimal.RequireFromString("1.00")),
		"got %s", breakdown.Amount)
}

func TestCalculateRefund_OverQuantityRejected(t *testing.T) {
	subOrder := testSubOrder()

	_, err := CalculateRefund(subOrder, []RequestedItem{
		{OrderItemID: subOrder.Items[1].ID, Quantity: 3},
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "items", validationErr.Field)
	assert.Contains(t, validationErr.Message, "exceeds ordered quantity")
}

func TestCalculateRefund_UnknownItemRejected(t *testing.T) {
	subOrder := testSubOrder()

	_, err := CalculateRefund(subOrder, []RequestedItem{
		{OrderItemID: uuid.New(), Quantity: 1},
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "does not belong")
}

func TestCalculateRefund_DuplicateLineRejected(t *testing.T) {
	subOrder := testSubOrder()

	_, err := CalculateRefund(subOrder, []RequestedItem{
		{OrderItemID: subOrder.Items[0].ID, Quantity: 1},
		{OrderItemID: subOrder.Items[0].ID, Quantity: 1},
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "more than once")
}

func TestCalculateRefund_ZeroQuantityRejected(t *testing.T) {
	subOrder := testSubOrder()

	_, err := CalculateRefund(subOrder, []RequestedItem{
		{OrderItemID: subOrder.Items[0].ID, Quantity: 0},
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "must be positive")
}
