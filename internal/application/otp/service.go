package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/krishibazaar/marketplace/internal/domain/notification"
	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
)

const component = "otp_service"

// Service issues one-time passwords through the notification collaborator.
// Verification and session handling live outside the core; the caller keeps
// the returned code.
type Service struct {
	notifier notification.Notifier
	log      observability.Logger
}

func NewService(notifier notification.Notifier, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		notifier: notifier,
		log:      tel.Logger().With(observability.F("component", component)),
	}
}

// IssueOTP generates a 4-digit code and sends it to the phone via the
// configured carrier gateway. The code is returned even when delivery fails
// so the caller can fall back to a test-mode prompt.
func (s *Service) IssueOTP(ctx context.Context, phone, carrier string) (code string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("otp: generate: %w", err)
	}
	code = fmt.Sprintf("%04d", n.Int64()+1000)

	if err := s.notifier.SendOTP(ctx, phone, carrier, code); err != nil {
		logctx.FromOr(ctx, s.log).Warn("otp_delivery_failed",
			observability.F("carrier", carrier),
			observability.F("error", err.Error()),
		)
		return code, err
	}
	return code, nil
}
