// Package notification delivers follow-up emails to qualified leads.
package notification

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"leadchat_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers one follow-up email.
type Sender interface {
	SendFollowUp(ctx context.Context, toEmail, name string) error
}

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

var followUpTemplate = template.Must(template.New("followup").Parse(`<html><body>
<p>Hi {{.Greeting}},</p>
<p>Thanks for chatting with us earlier. Based on what you told us about your
situation, one of our consultants would love to walk you through how we can
help.</p>
<p>Just reply to this email and we will set something up.</p>
<p>Best,<br>The team</p>
</body></html>`))

type followUpData struct {
	Greeting string
}

// SendFollowUp sends the follow-up email for a qualified lead.
func (s *SMTPSender) SendFollowUp(ctx context.Context, toEmail, name string) error {
	greeting := strings.TrimSpace(name)
	if greeting == "" {
		greeting = "there"
	}

	var body strings.Builder
	if err := followUpTemplate.Execute(&body, followUpData{Greeting: greeting}); err != nil {
		return fmt.Errorf("render follow-up: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject("Following up on our conversation")
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
