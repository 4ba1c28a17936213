package workflow

import (
	"testing"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmission(t *testing.T) {
	assert.NoError(t, ValidateSubmission(validOrder(model.StatePendingBuyerSignature)))
}

func TestValidateSubmissionRejectsBadOrders(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.PurchaseOrder)
		wantField string
	}{
		{"no items", func(o *model.PurchaseOrder) { o.Items = nil }, "items"},
		{"unnamed item", func(o *model.PurchaseOrder) { o.Items[0].Name = " " }, "items"},
		{"negative quantity", func(o *model.PurchaseOrder) { o.Items[0].Quantity = -1 }, "items"},
		{"zero unit price", func(o *model.PurchaseOrder) { o.Items[0].UnitPrice = decimal.Zero }, "items"},
		{"negative discount", func(o *model.PurchaseOrder) { o.Items[0].Discount = decimal.NewFromInt(-5) }, "items"},
		{"missing supplier", func(o *model.PurchaseOrder) { o.SupplierID = nil }, "supplier_id"},
		{"unknown currency", func(o *model.PurchaseOrder) { o.Currency = "EUR" }, "currency"},
		{"blank cost center", func(o *model.PurchaseOrder) { o.CostCenter = "  " }, "cost_center"},
		{"blank payment terms", func(o *model.PurchaseOrder) { o.PaymentTerms = "" }, "payment_terms"},
		{"negative other charges", func(o *model.PurchaseOrder) { o.OtherCharges = decimal.NewFromInt(-1) }, "other_charges"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder(model.StatePendingBuyerSignature)
			tt.mutate(order)

			err := ValidateSubmission(order)
			var v *ValidationError
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.wantField, v.Field)
		})
	}
}

func TestValidateSubmissionAllowsZeroQuantity(t *testing.T) {
	order := validOrder(model.StatePendingBuyerSignature)
	order.Items[0].Quantity = 0
	assert.NoError(t, ValidateSubmission(order))
}
