package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const resetSubject = "Reset your CodeTrust AI password"

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2937;">
    <h2>Reset your password</h2>
    <p>We received a request to reset the password for your CodeTrust AI account.</p>
    <p><a href="{{.ResetURL}}" style="background:#4f46e5;color:#ffffff;padding:10px 18px;border-radius:6px;text-decoration:none;">Reset password</a></p>
    <p>Or copy this link into your browser:<br>{{.ResetURL}}</p>
    <p>This link expires in {{.ExpiresIn}}.</p>
    <p>If you didn't request a password reset, you can safely ignore this email.</p>
  </body>
</html>
`))

type resetEmailData struct {
	ResetURL  string
	ExpiresIn string
}

func renderResetEmail(resetURL, expiresIn string) (string, error) {
	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, resetEmailData{ResetURL: resetURL, ExpiresIn: expiresIn}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExpiryText renders a token lifetime for the email body, e.g. "1 hour" or
// "90 minutes".
func ExpiryText(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	}
	return d.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
