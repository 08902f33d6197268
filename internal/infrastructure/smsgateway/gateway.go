// Package smsgateway delivers OTP texts through carrier email-to-SMS
// gateways: the message is mailed to <last-10-digits>@<carrier-domain>.
package smsgateway

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"unicode"
)

var (
	ErrUnknownCarrier = errors.New("smsgateway: unknown carrier")
	ErrNotConfigured  = errors.New("smsgateway: smtp sender not configured")
)

var carrierDomains = map[string]string{
	"verizon": "@vtext.com",
	"att":     "@txt.att.net",
	"tmobile": "@tmomail.net",
	"sprint":  "@messaging.sprintpcs.com",
}

type Config struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

type Gateway struct {
	cfg Config
	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config) *Gateway {
	return &Gateway{cfg: cfg, send: smtp.SendMail}
}

// SendOTP implements the notification.Notifier port.
func (g *Gateway) SendOTP(ctx context.Context, phone, carrier, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.cfg.Sender == "" || g.cfg.Host == "" {
		return ErrNotConfigured
	}

	domainSuffix, ok := carrierDomains[strings.ToLower(carrier)]
	if !ok {
		return ErrUnknownCarrier
	}

	to := cleanPhone(phone) + domainSuffix
	body := fmt.Sprintf("Your KrishiBazaar OTP is: %s", code)
	msg := []byte("From: " + g.cfg.Sender + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: KrishiBazaar OTP\r\n" +
		"\r\n" + body + "\r\n")

	addr := fmt.Sprintf("%s:%d", g.cfg.Host, g.cfg.Port)
	auth := smtp.PlainAuth("", g.cfg.Sender, g.cfg.Password, g.cfg.Host)
	if err := g.send(addr, auth, g.cfg.Sender, []string{to}, msg); err != nil {
		return fmt.Errorf("smsgateway: send: %w", err)
	}
	return nil
}

// cleanPhone keeps the last 10 digits of the number.
func cleanPhone(phone string) string {
	var digits []rune
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return string(digits)
}
