package notifier

import (
	"testing"

	"github.com/rs/zerolog"

	"movie-pulse/syncer"
)

func TestEmailConfigEnabled(t *testing.T) {
	if (EmailConfig{}).Enabled() {
		t.Error("Empty config should be disabled")
	}
	if (EmailConfig{SMTPHost: "smtp.example.com"}).Enabled() {
		t.Error("Config without recipient should be disabled")
	}

	cfg := EmailConfig{SMTPHost: "smtp.example.com", RecipientEmail: "ops@example.com"}
	if !cfg.Enabled() {
		t.Error("Config with host and recipient should be enabled")
	}
}

func TestGetEmailConfigFromEnv(t *testing.T) {
	t.Setenv("EMAIL_SMTP_HOST", "smtp.example.com")
	t.Setenv("EMAIL_SMTP_PORT", "2525")
	t.Setenv("EMAIL_SENDER", "bot@example.com")
	t.Setenv("EMAIL_RECIPIENT", "ops@example.com")

	cfg := GetEmailConfigFromEnv()
	if cfg.SMTPHost != "smtp.example.com" {
		t.Errorf("Unexpected host: %s", cfg.SMTPHost)
	}
	if cfg.SMTPPort != 2525 {
		t.Errorf("Unexpected port: %d", cfg.SMTPPort)
	}
	if cfg.RecipientEmail != "ops@example.com" {
		t.Errorf("Unexpected recipient: %s", cfg.RecipientEmail)
	}
}

func TestGetEmailConfigFromEnvDefaultPort(t *testing.T) {
	t.Setenv("EMAIL_SMTP_PORT", "not-a-port")

	cfg := GetEmailConfigFromEnv()
	if cfg.SMTPPort != 587 {
		t.Errorf("Expected default port 587, got %d", cfg.SMTPPort)
	}
}

func TestNotifySkipsWithoutRecipient(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{SMTPHost: "smtp.example.com"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create notifier: %v", err)
	}

	// No recipient configured: nothing to send, no error.
	if err := n.NotifySyncSummary("partial_sync", syncer.Summary{ItemsSeen: 1}, nil); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}
