package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	gomail "gopkg.in/mail.v2"

	"movie-pulse/syncer"
)

// EmailNotifier mails the outcome of sync runs to an operator address.
type EmailNotifier struct {
	smtpHost       string
	smtpPort       int
	senderEmail    string
	senderPass     string
	recipientEmail string
	htmlTemplate   *template.Template
	log            zerolog.Logger
}

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

// Enabled reports whether enough configuration is present to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.RecipientEmail != ""
}

const summaryTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Movie Pulse - Sync Report</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; }
        h1 { color: #e50914; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .ok { color: #2e7d32; font-weight: bold; }
        .failed { color: #c62828; font-weight: bold; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
    </style>
</head>
<body>
    <h1>Movie Pulse - Sync Report</h1>
    <p>Job <strong>{{.JobName}}</strong> finished on {{.Date}}.</p>

    <table>
        <tr><th>Items seen</th><td>{{.Summary.ItemsSeen}}</td></tr>
        <tr><th>Items upserted</th><td class="ok">{{.Summary.ItemsUpserted}}</td></tr>
        <tr><th>Items failed</th><td {{if .Summary.ItemsFailed}}class="failed"{{end}}>{{.Summary.ItemsFailed}}</td></tr>
    </table>

    {{if .RunError}}
    <p class="failed">Run error: {{.RunError}}</p>
    {{end}}

    <div class="footer">
        <p>This is an automated email from Movie Pulse. Please do not reply.</p>
    </div>
</body>
</html>
`

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig, logger zerolog.Logger) (*EmailNotifier, error) {
	tmpl, err := template.New("sync_summary").Parse(summaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}

	return &EmailNotifier{
		smtpHost:       config.SMTPHost,
		smtpPort:       config.SMTPPort,
		senderEmail:    config.SenderEmail,
		senderPass:     config.SenderPassword,
		recipientEmail: config.RecipientEmail,
		htmlTemplate:   tmpl,
		log:            logger.With().Str("component", "notifier").Logger(),
	}, nil
}

// GetEmailConfigFromEnv loads email configuration from environment variables
func GetEmailConfigFromEnv() EmailConfig {
	smtpPort := 587
	if portStr := os.Getenv("EMAIL_SMTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			smtpPort = p
		}
	}

	return EmailConfig{
		SMTPHost:       os.Getenv("EMAIL_SMTP_HOST"),
		SMTPPort:       smtpPort,
		SenderEmail:    os.Getenv("EMAIL_SENDER"),
		SenderPassword: os.Getenv("EMAIL_PASSWORD"),
		RecipientEmail: os.Getenv("EMAIL_RECIPIENT"),
	}
}

// NotifySyncSummary sends an email with the outcome of one sync run.
func (n *EmailNotifier) NotifySyncSummary(jobName string, summary syncer.Summary, runErr error) error {
	if n.recipientEmail == "" {
		n.log.Debug().Msg("no recipient email configured, skipping notification")
		return nil
	}

	data := struct {
		JobName  string
		Date     string
		Summary  syncer.Summary
		RunError error
	}{
		JobName:  jobName,
		Date:     time.Now().Format("January 2, 2006 at 3:04 PM"),
		Summary:  summary,
		RunError: runErr,
	}

	var emailBody bytes.Buffer
	if err := n.htmlTemplate.Execute(&emailBody, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Movie Pulse %s: %d upserted, %d failed",
		jobName, summary.ItemsUpserted, summary.ItemsFailed))

	plainText := fmt.Sprintf(
		"Movie Pulse sync report\n\n"+
			"Job %s finished on %s.\n"+
			"Items seen: %d\nItems upserted: %d\nItems failed: %d\n",
		jobName, data.Date, summary.ItemsSeen, summary.ItemsUpserted, summary.ItemsFailed)
	if runErr != nil {
		plainText += fmt.Sprintf("\nRun error: %v\n", runErr)
	}

	m.SetBody("text/plain", plainText)
	m.AddAlternative("text/html", emailBody.String())

	d := gomail.NewDialer(n.smtpHost, n.smtpPort, n.senderEmail, n.senderPass)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.log.Info().Str("recipient", n.recipientEmail).Str("job", jobName).Msg("sync summary email sent")
	return nil
}
