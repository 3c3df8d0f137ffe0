package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/school-dashboard/backend/config"
	"github.com/school-dashboard/backend/internal/models"
)

func TestSubject(t *testing.T) {
	if got := Subject(models.RoleTeacher); got != "Teacher Invitation – School Dashboard" {
		t.Fatalf("teacher subject = %q", got)
	}
	if got := Subject(models.RoleParent); got != "Parent Invitation – School Dashboard" {
		t.Fatalf("parent subject = %q", got)
	}
}

func TestBuildInviteMessage(t *testing.T) {
	link := "https://dash.example.com/accept-invite?id=abc"
	msg := string(BuildInviteMessage("School Dashboard", "no-reply@example.com", "t@example.com", models.RoleTeacher, link))

	header, body, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatal("message has no header/body separator")
	}
	for _, want := range []string{
		`From: "School Dashboard" <no-reply@example.com>`,
		"To: t@example.com",
		"Subject: Teacher Invitation – School Dashboard",
		"Content-Type: text/html; charset=UTF-8",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q", want)
		}
	}
	if !strings.Contains(body, link) {
		t.Error("body missing invite link")
	}
	if !strings.Contains(body, "<b>teacher</b>") {
		t.Error("body missing role")
	}
}

func TestSendNotConfigured(t *testing.T) {
	m := NewSMTP(config.EmailConfig{}, nil)
	err := m.Send(context.Background(), "t@example.com", models.RoleTeacher, "https://x/accept-invite?id=1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSendCanceledContext(t *testing.T) {
	m := NewSMTP(config.EmailConfig{SMTPHost: "localhost", SMTPPort: 25}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Send(ctx, "t@example.com", models.RoleParent, "https://x/accept-invite?id=1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
