package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendInvoice(toEmail, toName string, summary *domain.RentalSummary, body string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Your FleetRent invoice #%d", summary.RentalID)
	html := fmt.Sprintf(`
		<h2>Thanks for renting with FleetRent!</h2>
		<p>Hi %s,</p>
		<p>Your %s %s is booked from %s to %s.</p>
		<p>Total: <strong>%.2f EUR</strong></p>
		<pre>%s</pre>
	`, toName, summary.Make, summary.Model, summary.StartDate, summary.EndDate, summary.TotalCost, body)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(body) != "" {
		msg.SetText(body)
	}
	msg.SetHTML(html)

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
