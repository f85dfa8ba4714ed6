package mailer

import (
	"fmt"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendInvoice(toEmail, toName string, summary *domain.RentalSummary, body string) error {
	logger.Info("📧 [DEV MAIL] Rental Invoice",
		"to", toEmail,
		"name", toName,
		"rental_id", summary.RentalID,
		"total_cost", summary.TotalCost,
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 RENTAL INVOICE (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: Your FleetRent invoice #%d\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, toName, summary.RentalID, body)

	return nil
}
