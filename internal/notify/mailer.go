// Package notify delivers arbitrage alerts to users by email. Delivery is an
// external collaborator: callers treat a failed send as non-fatal and
// isolated per recipient.
package notify

import "context"

// Mailer is the outbound email collaborator.
type Mailer interface {
	// SendEmail delivers one HTML message to a single recipient address.
	SendEmail(ctx context.Context, recipient, subject, htmlBody string) error
}
