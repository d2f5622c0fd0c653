package notifications

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sampleforge/sampleforge-backend/pkg/logger"
	"github.com/sampleforge/sampleforge-backend/pkg/mailer"
)

// Service sends buyer-facing notifications. Delivery is fire-and-forget
// from the pipeline's perspective: a lost email never affects the order or
// its grants.
type Service interface {
	SendPurchaseConfirmation(ctx context.Context, confirmation PurchaseConfirmation) error
}

type service struct {
	mail       mailer.Sender
	apiBaseURL string
	logg       *logger.Logger
}

// NewService builds the notification service. apiBaseURL is the public URL
// downloads are served from.
func NewService(mail mailer.Sender, apiBaseURL string, logg *logger.Logger) (Service, error) {
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if apiBaseURL == "" {
		return nil, fmt.Errorf("api base url required")
	}
	return &service{
		mail:       mail,
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		logg:       logg,
	}, nil
}

func (s *service) SendPurchaseConfirmation(ctx context.Context, confirmation PurchaseConfirmation) error {
	if confirmation.CustomerEmail == "" {
		return fmt.Errorf("confirmation has no recipient")
	}

	msg := mailer.Message{
		To:       confirmation.CustomerEmail,
		Subject:  "Your SampleForge downloads are ready",
		TextBody: s.textBody(confirmation),
		HTMLBody: s.htmlBody(confirmation),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending purchase confirmation: %w", err)
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, confirmation.OrderID.String())
		s.logg.Info(logCtx, "purchase confirmation sent")
	}
	return nil
}

func (s *service) downloadURL(token string) string {
	return fmt.Sprintf("%s/download/%s", s.apiBaseURL, token)
}

func (s *service) textBody(confirmation PurchaseConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your purchase!\n\n")
	fmt.Fprintf(&b, "Order %s — total %s\n\n", confirmation.OrderID, formatCents(confirmation.TotalCents))
	for _, pack := range confirmation.Packs {
		fmt.Fprintf(&b, "%s (%d samples)\n", pack.PackTitle, len(pack.Grants))
		for _, grant := range pack.Grants {
			fmt.Fprintf(&b, "  %s: %s\n", grant.SampleTitle, s.downloadURL(grant.Token))
		}
		if len(pack.Grants) > 0 {
			first := pack.Grants[0]
			fmt.Fprintf(&b, "  Each link allows %d downloads and expires %s.\n",
				first.MaxDownloads, first.ExpiresAt.Format("Jan 2, 2006"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *service) htmlBody(confirmation PurchaseConfirmation) string {
	var b strings.Builder
	b.WriteString("<h1>Thanks for your purchase!</h1>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> — total %s</p>",
		confirmation.OrderID, formatCents(confirmation.TotalCents))
	for _, pack := range confirmation.Packs {
		fmt.Fprintf(&b, "<h2>%s</h2><ul>", html.EscapeString(pack.PackTitle))
		for _, grant := range pack.Grants {
			fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`,
				s.downloadURL(grant.Token), html.EscapeString(grant.SampleTitle))
		}
		b.WriteString("</ul>")
		if len(pack.Grants) > 0 {
			first := pack.Grants[0]
			fmt.Fprintf(&b, "<p>Each link allows %d downloads and expires %s.</p>",
				first.MaxDownloads, first.ExpiresAt.Format("Jan 2, 2006"))
		}
	}
	return b.String()
}

func formatCents(cents int) string {
	return "$" + decimal.NewFromInt(int64(cents)).Shift(-2).StringFixed(2)
}
