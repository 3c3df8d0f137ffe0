// Package mailer delivers invitation links by email. The rest of the system
// depends only on the Send contract; SMTP details stay behind it.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/school-dashboard/backend/config"
	"github.com/school-dashboard/backend/internal/models"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp not configured")

// Mailer sends an invitation link to a recipient. A delivery failure never
// invalidates the already-created invitation.
type Mailer interface {
	Send(ctx context.Context, to string, role models.Role, inviteLink string) error
}

// SMTP is the production Mailer backed by net/smtp.
type SMTP struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewSMTP creates an SMTP mailer.
func NewSMTP(cfg config.EmailConfig, logger *zap.Logger) *SMTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTP{cfg: cfg, logger: logger}
}

// Send delivers the invite email. The context bounds the caller's intent;
// net/smtp itself does not take one, so cancellation is checked up front.
func (m *SMTP) Send(ctx context.Context, to string, role models.Role, inviteLink string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.cfg.SMTPHost == "" {
		return ErrNotConfigured
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}

	msg := BuildInviteMessage(m.cfg.FromName, m.cfg.FromAddress, to, role, inviteLink)
	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, msg); err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	m.logger.Info("invite email sent", zap.String("to", to), zap.String("role", string(role)))
	return nil
}

// Subject returns the role-specific invite subject line.
func Subject(role models.Role) string {
	if role == models.RoleParent {
		return "Parent Invitation – School Dashboard"
	}
	return "Teacher Invitation – School Dashboard"
}

// BuildInviteMessage renders the raw RFC 5322 message for an invite email.
func BuildInviteMessage(fromName, fromAddr, to string, role models.Role, inviteLink string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %q <%s>\r\n", fromName, fromAddr)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject(role))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("<h2>Welcome</h2>\r\n")
	fmt.Fprintf(&b, "<p>You are invited as a <b>%s</b>.</p>\r\n", role)
	b.WriteString("<p>Click below to continue:</p>\r\n")
	fmt.Fprintf(&b, "<a href=%q>%s</a>\r\n", inviteLink, inviteLink)
	return []byte(b.String())
}
