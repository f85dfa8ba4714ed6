package mailer

import "github.com/fleetrent/fleetrent-backend/internal/domain"

type Service interface {
	// SendInvoice delivers the rendered invoice for a committed rental.
	SendInvoice(toEmail, toName string, summary *domain.RentalSummary, body string) error
}
