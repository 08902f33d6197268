package notification

import "context"

// Notifier is the contract the core requires from the notification
// collaborator. Delivery transport (SMTP gateway, SMS provider) is an
// infrastructure concern; failures are returned to the caller and are never
// fatal to the process.
type Notifier interface {
	SendOTP(ctx context.Context, phone, carrier, code string) error
}
