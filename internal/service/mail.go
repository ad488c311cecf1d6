// Package service contains stuff related to the background processing
// of the application and the collaborators handlers reach out to
package service

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/dancarlton/rinsed/internal/model"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrMailToSender = errors.New("invalid email address")

type Mailer interface {
	SendVerification(t *model.VerificationToken, sendTo string) error
	SendPasswordReset(sendTo, token string) error
}

// NewMailer returns an SMTP mailer when mail.enabled is set and a mailer
// that only logs the links otherwise.
func NewMailer() Mailer {
	if !viper.GetBool("mail.enabled") {
		return LogMailer{}
	}

	return &SMTPMailer{
		From:   viper.GetString("mail.sender_address"),
		Dialer: gomail.NewDialer(viper.GetString("mail.host"), viper.GetInt("mail.port"), viper.GetString("mail.sender_address"), viper.GetString("mail.password")),
	}
}

type SMTPMailer struct {
	From   string
	Dialer *gomail.Dialer
}

func (m *SMTPMailer) SendVerification(t *model.VerificationToken, sendTo string) error {
	body := fmt.Sprintf("Click <a href='%v'>here</a> to verify your account.\n\nThis link will expire in 30 minutes", VerificationLink(t))
	return m.send(sendTo, "Verify your email to finish signing up", body)
}

func (m *SMTPMailer) SendPasswordReset(sendTo, token string) error {
	body := fmt.Sprintf("Someone asked to reset the password of this account. Click <a href='%v'>here</a> to choose a new one.\n\nThis link will expire in 1 hour. If it wasn't you, ignore this mail.", ResetLink(token))
	return m.send(sendTo, "Reset your password", body)
}

func (m *SMTPMailer) send(sendTo, subject, body string) error {
	if sendTo == m.From {
		return ErrMailToSender
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", sendTo)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	return m.Dialer.DialAndSend(msg)
}

// LogMailer is used when no SMTP server is configured
type LogMailer struct{}

func (LogMailer) SendVerification(t *model.VerificationToken, sendTo string) error {
	zap.L().Info("Verification mail", zap.String("to", sendTo), zap.String("link", VerificationLink(t)))
	return nil
}

func (LogMailer) SendPasswordReset(sendTo, token string) error {
	zap.L().Info("Password reset mail", zap.String("to", sendTo), zap.String("link", ResetLink(token)))
	return nil
}

func VerificationLink(t *model.VerificationToken) string {
	q := url.Values{}
	q.Set("user_id", t.UserID)
	q.Set("token", t.Token)

	return baseURL() + "/verify?" + q.Encode()
}

func ResetLink(token string) string {
	return baseURL() + "/reset-password?token=" + url.QueryEscape(token)
}

func baseURL() string {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	return scheme + "://" + viper.GetString("host.domain")
}
