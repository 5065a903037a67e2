package email

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// MagicLinkEmail describes the content of a sign-in email.
type MagicLinkEmail struct {
	URL       string
	ExpiresIn time.Duration
}

// Component returns the templ component rendering the HTML body.
func (m MagicLinkEmail) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		url := html.EscapeString(m.URL)
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #1a1a1a; max-width: 480px; margin: 0 auto; padding: 24px;">
    <h1 style="font-size: 20px;">Sign in to your account</h1>
    <p>Click the button below to sign in. This link can be used once and expires in %s.</p>
    <p style="margin: 32px 0;">
      <a href="%s" style="background: #18181b; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Sign in</a>
    </p>
    <p style="color: #6b7280; font-size: 13px;">If the button does not work, copy this address into your browser:<br>%s</p>
    <p style="color: #6b7280; font-size: 13px;">If you did not request this email you can safely ignore it.</p>
  </body>
</html>`, formatDuration(m.ExpiresIn), url, url)
		return err
	})
}

// Render produces both bodies for the sign-in email.
func (m MagicLinkEmail) Render(ctx context.Context) (text, htmlBody string, err error) {
	var sb strings.Builder
	if err := m.Component().Render(ctx, &sb); err != nil {
		return "", "", err
	}

	text = fmt.Sprintf(
		"Sign in to your account\n\nFollow this link to sign in (valid for %s, single use):\n%s\n\nIf you did not request this email you can safely ignore it.\n",
		formatDuration(m.ExpiresIn), m.URL,
	)

	return text, sb.String(), nil
}

func formatDuration(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
