package notifier

import (
	"context"
	"errors"
)

const KindPasswordReset = "password_reset"

var ErrInvalidRecipient = errors.New("invalid recipient")

// Notifier delivers account email. Implementations must be safe for
// concurrent use.
type Notifier interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}
