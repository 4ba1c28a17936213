package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	item := LineItem{Quantity: 3, UnitPrice: decimal.NewFromInt(50), Discount: decimal.NewFromInt(20)}
	assert.True(t, item.LineTotal().Equal(decimal.NewFromInt(130)))

	free := LineItem{Quantity: 0, UnitPrice: decimal.NewFromInt(50)}
	assert.True(t, free.LineTotal().IsZero())
}

func TestRecalculateTotals(t *testing.T) {
	order := &PurchaseOrder{
		Items: []LineItem{
			{Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
			{Quantity: 1, UnitPrice: decimal.NewFromInt(50), Discount: decimal.NewFromInt(10)},
		},
		OtherCharges: decimal.NewFromInt(20),
	}

	order.RecalculateTotals()

	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(240)), "subtotal = %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(decimal.NewFromFloat(43.2)), "tax = %s", order.Tax)
	assert.True(t, order.GrandTotal.Equal(order.Subtotal.Add(order.Tax).Add(order.OtherCharges)))
}

func TestRecalculateTotalsIsIdempotent(t *testing.T) {
	order := &PurchaseOrder{
		Items:        []LineItem{{Quantity: 4, UnitPrice: decimal.NewFromFloat(19.99)}},
		OtherCharges: decimal.NewFromInt(5),
	}

	order.RecalculateTotals()
	first := order.GrandTotal
	order.RecalculateTotals()

	assert.True(t, order.GrandTotal.Equal(first))
}

func TestRecalculateTotalsEmptyItems(t *testing.T) {
	order := &PurchaseOrder{OtherCharges: decimal.NewFromInt(15)}
	order.RecalculateTotals()

	assert.True(t, order.Subtotal.IsZero())
	assert.True(t, order.Tax.IsZero())
	assert.True(t, order.GrandTotal.Equal(decimal.NewFromInt(15)))
}

func TestHasSignature(t *testing.T) {
	order := &PurchaseOrder{
		Signatures: []StageSignature{{Stage: "buyer", SignatureRef: "sig-1"}},
	}

	assert.True(t, order.HasSignature("buyer"))
	assert.False(t, order.HasSignature("operations"))

	sig := order.SignatureFor("buyer")
	assert.NotNil(t, sig)
	assert.Equal(t, "sig-1", sig.SignatureRef)
	assert.Nil(t, order.SignatureFor("finance"))
}

func TestEditable(t *testing.T) {
	assert.True(t, (&PurchaseOrder{State: StatePendingBuyerSignature}).Editable())
	assert.True(t, (&PurchaseOrder{State: StateRejected, AmendmentAllowed: true}).Editable())
	assert.False(t, (&PurchaseOrder{State: StateRejected}).Editable())
	assert.False(t, (&PurchaseOrder{State: StatePendingOperations}).Editable())
	assert.False(t, (&PurchaseOrder{State: StatePaid, AmendmentAllowed: true}).Editable())
}
