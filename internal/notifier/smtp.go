// Package notifier implements outbound email notifications over SMTP.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"recordvault/internal/config"
	"recordvault/internal/domain/services"
)

// SMTPNotifier implements the Notifier interface over plain SMTP with
// AUTH PLAIN. Bodies are plain text; there is no template engine.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *slog.Logger

	// send is swappable for tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(cfg config.SMTPConfig, logger *slog.Logger) services.Notifier {
	return &SMTPNotifier{
		cfg:    cfg,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// SendOTP mails a one-time verification code
func (n *SMTPNotifier) SendOTP(ctx context.Context, email, code string) error {
	subject := "Secured Health Records - OTP Verification"
	body := buildOTPBody(code)

	if err := n.sendMail(ctx, email, subject, body); err != nil {
		n.logger.Error("failed to send OTP email", "recipient", email, "error", err)
		return fmt.Errorf("send OTP email: %w", err)
	}

	n.logger.Info("OTP email sent", "recipient", email)
	return nil
}

// SendShareLink mails a share link on behalf of senderName
func (n *SMTPNotifier) SendShareLink(ctx context.Context, email, link, senderName string) error {
	subject := "Secured Health Records - Files Shared with You"
	body := buildShareBody(link, senderName)

	if err := n.sendMail(ctx, email, subject, body); err != nil {
		n.logger.Error("failed to send share email", "recipient", email, "error", err)
		return fmt.Errorf("send share email: %w", err)
	}

	n.logger.Info("share email sent", "recipient", email)
	return nil
}

func (n *SMTPNotifier) sendMail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	return n.send(addr, auth, n.cfg.From, []string{to}, []byte(msg.String()))
}

func buildOTPBody(code string) string {
	return fmt.Sprintf(
		"Dear User,\n\n"+
			"Your OTP for Secured Health Records verification is: %s\n\n"+
			"This OTP is valid for 10 minutes. Please do not share this code with anyone.\n\n"+
			"If you did not request this OTP, please ignore this email.\n\n"+
			"Best regards,\n"+
			"Secured Health Records Team",
		code,
	)
}

func buildShareBody(link, senderName string) string {
	return fmt.Sprintf(
		"Dear User,\n\n"+
			"%s has shared some health records with you through Secured Health Records.\n\n"+
			"You can access the shared files using the following secure link:\n%s\n\n"+
			"This link will expire after the specified duration. No registration is required to view the files.\n\n"+
			"Best regards,\n"+
			"Secured Health Records Team",
		senderName, link,
	)
}
