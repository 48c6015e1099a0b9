package usecase

import (
	"strings"

	"agritech/internal/domain/model"
)

var (
	providerSuccess = map[string]struct{}{"successful": {}, "completed": {}, "paid": {}}
	providerFailure = map[string]struct{}{"failed": {}, "cancelled": {}, "canceled": {}, "expired": {}}
)

// ClassifyProviderStatus maps any provider status string onto our payment status.
// Unknown values stay Pending.
func ClassifyProviderStatus(status string) model.PaymentStatus {
	s := strings.ToLower(strings.TrimSpace(status))
	if _, ok := providerSuccess[s]; ok {
		return model.PaymentStatusPaid
	}
	if _, ok := providerFailure[s]; ok {
		return model.PaymentStatusFailed
	}
	return model.PaymentStatusPending
}
