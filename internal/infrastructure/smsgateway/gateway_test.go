package smsgateway

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configured() Config {
	return Config{Host: "smtp.example.com", Port: 587, Sender: "noreply@example.com", Password: "secret"}
}

func TestSendOTP(t *testing.T) {
	g := New(configured())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	g.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := g.SendOTP(context.Background(), "+91 (555) 123-4567", "Verizon", "4821")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	require.Len(t, gotTo, 1)
	// Only the last 10 digits reach the carrier gateway.
	assert.Equal(t, "5551234567@vtext.com", gotTo[0])
	assert.Contains(t, string(gotMsg), "4821")
}

func TestSendOTP_UnknownCarrier(t *testing.T) {
	g := New(configured())
	g.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be reached")
		return nil
	}

	err := g.SendOTP(context.Background(), "5551234567", "pigeon", "1234")
	assert.ErrorIs(t, err, ErrUnknownCarrier)
}

func TestSendOTP_NotConfigured(t *testing.T) {
	g := New(Config{})
	err := g.SendOTP(context.Background(), "5551234567", "att", "1234")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendOTP_CancelledContext(t *testing.T) {
	g := New(configured())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.SendOTP(ctx, "5551234567", "att", "1234")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "5551234567", cleanPhone("+1 (555) 123-4567"))
	assert.Equal(t, "5551234567", cleanPhone("5551234567"))
	assert.Equal(t, "123", cleanPhone("1-2-3"))
}

func TestCarrierLookupIsCaseInsensitive(t *testing.T) {
	g := New(configured())
	var gotTo []string
	g.send = func(_ string, _ smtp.Auth, _ string, to []string, _ []byte) error {
		gotTo = to
		return nil
	}

	require.NoError(t, g.SendOTP(context.Background(), "5551234567", "TMobile", "0000"))
	require.Len(t, gotTo, 1)
	assert.True(t, strings.HasSuffix(gotTo[0], "@tmomail.net"))
}
