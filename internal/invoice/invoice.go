// Package invoice renders a finished rental summary into a plain-text
// invoice document. Rendering is pure formatting; it runs after the
// reservation has committed and its failure never unwinds the rental.
package invoice

import (
	"fmt"
	"strings"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
)

// Render produces the invoice body sent to the renter. Currency rounding
// happens here and only here.
func Render(s *domain.RentalSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "FleetRent — Rental Invoice #%d\n", s.RentalID)
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	fmt.Fprintf(&b, "Vehicle:    %s %s (%s)\n", s.Make, s.Model, s.Plate)
	if s.Category != "" {
		fmt.Fprintf(&b, "Category:   %s\n", s.Category)
	}
	fmt.Fprintf(&b, "Renter:     %s\n", renterLine(s))
	fmt.Fprintf(&b, "Period:     %s to %s (%d days)\n", s.StartDate, s.EndDate, s.Days)
	fmt.Fprintf(&b, "Daily rate: %.2f EUR\n\n", s.DailyRate)

	fmt.Fprintf(&b, "TOTAL:      %.2f EUR\n", s.TotalCost)

	if s.ManageToken != "" {
		b.WriteString("\nKeep this reference to manage your rental:\n")
		fmt.Fprintf(&b, "  %s\n", s.ManageToken)
	}

	return b.String()
}

func renterLine(s *domain.RentalSummary) string {
	if s.UserRef == domain.GuestUserRef {
		return "guest"
	}
	if s.UserEmail != "" {
		return fmt.Sprintf("client #%s <%s>", s.UserRef, s.UserEmail)
	}
	return "client #" + s.UserRef
}
