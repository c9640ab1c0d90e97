package mailer

import (
	"fmt"
	"log"

	"github.com/Kyz7/skycast/internal/config"
	"github.com/Kyz7/skycast/internal/models"
	"github.com/wneessen/go-mail"
)

// Sender delivers a one-time passcode out of band. Implementations must not
// persist the plaintext code.
type Sender interface {
	SendCode(to, purpose, code, displayName string) error
}

func FromConfig(cfg *config.Config) Sender {
	if cfg.SMTPHost == "" {
		log.Println("⚠️  SMTP not configured, passcodes will be written to the log")
		return LogSender{}
	}
	return &SMTPSender{cfg: cfg}
}

type SMTPSender struct {
	cfg *config.Config
}

func (s *SMTPSender) SendCode(to, purpose, code, displayName string) error {
	msg := mail.NewMsg()

	if s.cfg.SMTPFromName != "" {
		if err := msg.FromFormat(s.cfg.SMTPFromName, s.cfg.SMTPFrom); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.SMTPFrom); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	subject, body := composeCode(purpose, code, displayName)
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.SMTPPort),
	}
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPassword != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.SMTPUser),
			mail.WithPassword(s.cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(s.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func composeCode(purpose, code, displayName string) (string, string) {
	greeting := "Hi"
	if displayName != "" {
		greeting = "Hi " + displayName
	}

	switch purpose {
	case models.PurposePasswordReset:
		return "Your Skycast password reset code",
			fmt.Sprintf("%s,\n\nYour password reset code is: %s\n\nIt expires in 5 minutes. If you didn't request this, you can ignore this email.\n", greeting, code)
	default:
		return "Your Skycast verification code",
			fmt.Sprintf("%s,\n\nYour verification code is: %s\n\nIt expires in 5 minutes.\n", greeting, code)
	}
}

// LogSender is the development fallback: no real delivery happens, so the
// code has to be obtainable from the log.
type LogSender struct{}

func (LogSender) SendCode(to, purpose, code, displayName string) error {
	log.Printf("📧 [dev] %s code for %s: %s", purpose, to, code)
	return nil
}
