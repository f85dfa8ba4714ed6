// Package pricing computes rental cost from duration, daily rate and the
// renter's discount tier. It holds no state and touches no storage.
package pricing

import (
	"time"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
)

// Tier classifies the renter for discount purposes.
type Tier string

const (
	TierRegistered Tier = "registered_client"
	TierGuest      Tier = "guest"
)

// multipliers maps tiers to price multipliers. Unknown tiers fall back to
// 1.0 rather than erroring; an unrecognized tier is an undiscounted rental,
// not a rejected one.
var multipliers = map[Tier]float64{
	TierRegistered: 0.94,
	TierGuest:      1.0,
}

// TierForRole derives the discount tier from a user role. Guests and any
// unrecognized role price at full rate.
func TierForRole(role string) Tier {
	switch role {
	case domain.RoleClient, domain.RoleAdmin:
		return TierRegistered
	default:
		return TierGuest
	}
}

func Multiplier(tier Tier) float64 {
	if m, ok := multipliers[tier]; ok {
		return m
	}
	return 1.0
}

// Days returns the whole calendar days between two dates. No partial-day
// rounding and no minimum-day floor beyond the natural arithmetic.
func Days(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// Quote prices a rental. Starts must strictly precede ends; equal or
// inverted ranges are rejected. No currency rounding happens here, that is
// a presentation concern.
func Quote(start, end time.Time, dailyRate float64, tier Tier) (float64, error) {
	if !start.Before(end) {
		return 0, domain.Validationf("start date must be before end date")
	}
	if dailyRate <= 0 {
		return 0, domain.Validationf("daily rate must be positive")
	}
	return dailyRate * float64(Days(start, end)) * Multiplier(tier), nil
}
