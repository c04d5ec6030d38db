package notifier

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes reset links to the log instead of sending mail. It is
// used when no SMTP host is configured.
type LogNotifier struct {
	logger logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, to, resetURL string) error {
	n.logger.WithFields(logrus.Fields{
		"email":     to,
		"reset_url": resetURL,
	}).Warn("smtp not configured, password reset link logged instead of sent")
	return nil
}
