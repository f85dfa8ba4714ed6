package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}

func TestQuoteGuestThreeDays(t *testing.T) {
	got, err := Quote(date(t, "2024-01-01"), date(t, "2024-01-04"), 100, TierGuest)
	require.NoError(t, err)
	assert.Equal(t, 300.0, got)
}

func TestQuoteRegisteredDiscount(t *testing.T) {
	got, err := Quote(date(t, "2024-01-01"), date(t, "2024-01-04"), 100, TierRegistered)
	require.NoError(t, err)
	assert.InDelta(t, 282.0, got, 1e-9)
}

func TestQuoteRegisteredIsDiscountedGuest(t *testing.T) {
	start, end := date(t, "2024-03-10"), date(t, "2024-03-17")

	guest, err := Quote(start, end, 59.5, TierGuest)
	require.NoError(t, err)
	registered, err := Quote(start, end, 59.5, TierRegistered)
	require.NoError(t, err)

	assert.InDelta(t, 0.94*guest, registered, 1e-9)
}

func TestQuoteUnknownTierFallsBackToFullRate(t *testing.T) {
	full, err := Quote(date(t, "2024-01-01"), date(t, "2024-01-03"), 80, TierGuest)
	require.NoError(t, err)

	unknown, err := Quote(date(t, "2024-01-01"), date(t, "2024-01-03"), 80, Tier("vip"))
	require.NoError(t, err)
	assert.Equal(t, full, unknown)
}

func TestQuoteRejectsInvertedRange(t *testing.T) {
	_, err := Quote(date(t, "2024-01-05"), date(t, "2024-01-01"), 100, TierGuest)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestQuoteRejectsEqualDates(t *testing.T) {
	d := date(t, "2024-01-01")
	_, err := Quote(d, d, 100, TierGuest)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestQuoteRejectsNonPositiveRate(t *testing.T) {
	_, err := Quote(date(t, "2024-01-01"), date(t, "2024-01-02"), 0, TierGuest)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestQuoteIsDeterministic(t *testing.T) {
	start, end := date(t, "2024-06-01"), date(t, "2024-06-15")
	first, err := Quote(start, end, 123.45, TierRegistered)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Quote(start, end, 123.45, TierRegistered)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTierForRole(t *testing.T) {
	assert.Equal(t, TierRegistered, TierForRole(domain.RoleClient))
	assert.Equal(t, TierRegistered, TierForRole(domain.RoleAdmin))
	assert.Equal(t, TierGuest, TierForRole(""))
	assert.Equal(t, TierGuest, TierForRole("somebody"))
}
