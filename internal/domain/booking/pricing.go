package booking

import (
	"fmt"

	"github.com/fleetrent/service-rental/internal/domain"
)

// Quote computes the total rental cost in cents for the period at the
// given daily rate.
func Quote(period DateRange, dailyRateCents int64) int64 {
	return period.Days() * dailyRateCents
}

// ValidateQuotedCost checks a caller-supplied total against the server-side
// quote. A zero supplied value means the caller left pricing to the server.
func ValidateQuotedCost(supplied, quoted int64) error {
	if supplied == 0 {
		return nil
	}
	if supplied != quoted {
		return domain.NewValidationError(fmt.Sprintf(
			"total cost mismatch: expected %d, got %d", quoted, supplied,
		))
	}
	return nil
}
