package confirmation

import (
	"fmt"
	"math/rand/v2"
)

// Verification code spaces. The delivery code proves a door hand-off; the
// pickup code proves a site hand-off. The two spaces are independent per
// order.
const (
	deliveryCodeMin = 100_000
	deliveryCodeMax = 999_999

	pickupCodeMin = 1_000_000_000
	pickupCodeMax = 9_999_999_999
)

// GenerateDeliveryCode returns a 6-digit code drawn uniformly from
// [100000, 999999].
func GenerateDeliveryCode() string {
	n := deliveryCodeMin + rand.IntN(deliveryCodeMax-deliveryCodeMin+1) //nolint:gosec // short-lived hand-off secret
	return fmt.Sprintf("%06d", n)
}

// GeneratePickupCode returns a 10-digit code drawn uniformly from
// [1000000000, 9999999999].
func GeneratePickupCode() string {
	n := pickupCodeMin + rand.Int64N(pickupCodeMax-pickupCodeMin+1) //nolint:gosec // short-lived hand-off secret
	return fmt.Sprintf("%010d", n)
}

// MatchCode compares a submitted code against the stored one. A missing
// stored code or any mismatch yields ErrInvalidCode; the stored code is never
// included in the error.
func MatchCode(stored, submitted string) error {
	if stored == "" || submitted == "" || stored != submitted {
		return ErrInvalidCode
	}
	return nil
}
