package email

import (
	"context"
	"fmt"
	"html"
	"time"
)

// Provider defines the interface for email providers
type Provider interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
	GetProviderName() string
}

// Service wraps the email provider
type Service struct {
	provider Provider
	appURL   string
}

// NewService creates an email service. A nil provider makes every send
// fail with an error the caller can log and ignore.
func NewService(provider Provider, appURL string) *Service {
	return &Service{
		provider: provider,
		appURL:   appURL,
	}
}

// SendEmail sends an HTML email
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	if s.provider == nil {
		return fmt.Errorf("no email provider configured")
	}
	return s.provider.SendEmail(ctx, to, subject, body)
}

// SendWelcome tells a tenant their subscription is active.
func (s *Service) SendWelcome(ctx context.Context, to, businessName string, expiresAt time.Time) error {
	return s.SendEmail(ctx, to, "Sua assinatura NexusChat está ativa", WelcomeHTML(businessName, expiresAt, s.appURL))
}

// GetProviderName returns the name of the current provider
func (s *Service) GetProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.GetProviderName()
}

// WelcomeHTML renders the activation e-mail.
func WelcomeHTML(businessName string, expiresAt time.Time, appURL string) string {
	link := ""
	if appURL != "" {
		link = fmt.Sprintf(`<p><a href="%s">Acessar o painel</a></p>`, html.EscapeString(appURL))
	}
	return `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Bem-vindo, ` + html.EscapeString(businessName) + `!</h1>
        <p>Seu pagamento foi aprovado e sua assinatura está ativa até <strong>` + expiresAt.Format("02/01/2006") + `</strong>.</p>
        <p>Conecte o WhatsApp da sua empresa lendo o QR code no painel.</p>
        ` + link + `
    </div>
</body>
</html>`
}
