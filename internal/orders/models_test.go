package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func draftWith(items []ItemDraft, subtotal, discount, tax, total int64) OrderDraft {
	return OrderDraft{
		BusinessID:    "biz-1",
		UserID:        "user-1",
		OrderNumber:   "ORD-1001",
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TaxCents:      tax,
		TotalCents:    total,
		PickupAt:      time.Now().Add(time.Hour),
		Items:         items,
	}
}

func TestDraftValidate(t *testing.T) {
	items := []ItemDraft{
		{ProductID: "p1", Quantity: 2, UnitPriceCents: 200},
		{ProductID: "p2", Quantity: 1, UnitPriceCents: 100},
	}

	// subtotal 500, discount 50, tax 60 -> total harus 510
	assert.NoError(t, draftWith(items, 500, 50, 60, 510).Validate())

	// total 500 tidak konsisten -> tolak
	assert.ErrorIs(t, draftWith(items, 500, 50, 60, 500).Validate(), ErrTotalMismatch)

	// subtotal tidak sama dengan jumlah item
	assert.ErrorIs(t, draftWith(items, 400, 0, 0, 400).Validate(), ErrTotalMismatch)

	// tanpa item
	assert.ErrorIs(t, draftWith(nil, 0, 0, 0, 0).Validate(), ErrNoItems)

	// qty nol / negatif
	bad := []ItemDraft{{ProductID: "p1", Quantity: 0, UnitPriceCents: 100}}
	assert.ErrorIs(t, draftWith(bad, 0, 0, 0, 0).Validate(), ErrInvalidQuantity)
	bad[0].Quantity = -1
	assert.ErrorIs(t, draftWith(bad, -100, 0, 0, -100).Validate(), ErrInvalidQuantity)
}
