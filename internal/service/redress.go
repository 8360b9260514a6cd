package service

import (
	"strings"

	"complaint-service/internal/model"
)

// ValidateRedress enforces the redress business rules: monetary payment
// types require an amount and a rationale, non-monetary types require an
// action description. The payment type must already be normalized (alias
// resolution happens at the boundary via model.ParseRedressType).
func ValidateRedress(paymentType model.RedressType, amount *float64, rationale, actionDescription string) error {
	if paymentType.Monetary() {
		if amount == nil {
			return Validationf("amount required for monetary redress")
		}
		if strings.TrimSpace(rationale) == "" {
			return Validationf("rationale required for monetary redress")
		}
		return nil
	}
	if strings.TrimSpace(actionDescription) == "" {
		return Validationf("action description required for non-monetary redress")
	}
	return nil
}
