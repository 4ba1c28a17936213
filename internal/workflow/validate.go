package workflow

import (
	"strings"

	"backend/internal/model"
)

// ValidateSubmission enforces the submission contract: non-empty line items
// with valid numeric fields, a supplier, a recognised currency, and the
// required cost-center and payment-terms metadata. Applied both at creation
// and again on every resubmission.
func ValidateSubmission(order *model.PurchaseOrder) error {
	if len(order.Items) == 0 {
		return invalid("items", "at least one line item is required")
	}
	for _, item := range order.Items {
		if strings.TrimSpace(item.Name) == "" {
			return invalid("items", "line item name is required")
		}
		if item.Quantity < 0 {
			return invalid("items", "quantity for %q must not be negative", item.Name)
		}
		if !item.UnitPrice.IsPositive() {
			return invalid("items", "unit price for %q must be greater than zero", item.Name)
		}
		if item.Discount.IsNegative() {
			return invalid("items", "discount for %q must not be negative", item.Name)
		}
	}
	if order.SupplierID == nil {
		return invalid("supplier_id", "a supplier is required")
	}
	if order.Currency != model.CurrencyLocal && order.Currency != model.CurrencyForeign {
		return invalid("currency", "currency must be LOCAL or FOREIGN")
	}
	if strings.TrimSpace(order.CostCenter) == "" {
		return invalid("cost_center", "a cost center is required")
	}
	if strings.TrimSpace(order.PaymentTerms) == "" {
		return invalid("payment_terms", "payment terms are required")
	}
	if order.OtherCharges.IsNegative() {
		return invalid("other_charges", "other charges must not be negative")
	}
	return nil
}
