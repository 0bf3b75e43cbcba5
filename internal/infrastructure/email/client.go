// Package email provides the email client for lead-identification alerts.
package email

import (
	"fmt"
	"os"
	"time"

	"github.com/beaconview/beaconview-go/internal/domain/visitor"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending alert emails, allowing mock
// implementations in tests.
type Service interface {
	SendLeadIdentifiedAlert(toEmail string, v *visitor.Visitor) error
}

// ResendClient is the concrete implementation of the email Service using
// the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
	logger    *logging.ChanneledLogger
}

// NewService creates a new email service client, returning the Service
// interface.
func NewService(logger *logging.ChanneledLogger) (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("ALERT_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "alerts@beaconview.app"
	}

	fromName := os.Getenv("ALERT_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "BeaconView"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}, nil
}

// SendLeadIdentifiedAlert composes and sends the alert fired when an
// anonymous visitor is first bound to a known lead.
func (c *ResendClient) SendLeadIdentifiedAlert(toEmail string, v *visitor.Visitor) error {
	if v.Identity == nil {
		return fmt.Errorf("visitor %s has no identity to alert on", v.VisitorID)
	}

	subject := fmt.Sprintf("Lead identified: %s", v.Identity.Name)

	location := "unknown location"
	if v.Geo != nil && v.Geo.Country != "" {
		location = v.Geo.Country
		if v.Geo.City != "" {
			location = v.Geo.City + ", " + v.Geo.Country
		}
	}

	html := fmt.Sprintf(`
		<h2>A tracked lead just visited your site</h2>
		<p><strong>%s</strong> (%s%s) was identified via a %s link.</p>
		<ul>
			<li>Location: %s</li>
			<li>Sessions: %d</li>
			<li>Pageviews: %d</li>
			<li>Engagement score: %d</li>
		</ul>
		<p>Identified at %s.</p>`,
		v.Identity.Name,
		v.Identity.Email,
		companySuffix(v.Identity.Company),
		messageTypeLabel(v.Identity.Source),
		location,
		v.TotalSessions,
		v.TotalPageviews,
		v.EngagementScore,
		v.Identity.IdentifiedAt.Format(time.RFC1123),
	)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    html,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send lead alert via Resend: %w", err)
	}

	if c.logger != nil {
		c.logger.Email().Info("Lead identified alert sent", "to", toEmail, "visitorId", v.VisitorID)
	}
	return nil
}

func companySuffix(company string) string {
	if company == "" {
		return ""
	}
	return ", " + company
}

func messageTypeLabel(source string) string {
	if source == "" {
		return "tracked"
	}
	return source
}
