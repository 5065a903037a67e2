package email_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstolbov/passlink/pkg/email"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validParams() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Sign in to your account",
		BodyText: "https://example.com/auth/callback?token=abc",
		BodyHTML: "<p>sign in</p>",
	}
}

func TestSendEmailParamsValidate(t *testing.T) {
	t.Parallel()

	t.Run("accepts valid params", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validParams().Validate())
	})

	t.Run("rejects bad recipient", func(t *testing.T) {
		t.Parallel()
		p := validParams()
		p.SendTo = "not-an-email"
		assert.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		t.Parallel()
		p := validParams()
		p.Subject = ""
		assert.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		t.Parallel()
		p := validParams()
		p.BodyText = ""
		p.BodyHTML = ""
		assert.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
	})
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	t.Run("appends to log file and writes html", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		require.NoError(t, sender.SendEmail(context.Background(), validParams()))
		require.NoError(t, sender.SendEmail(context.Background(), validParams()))

		data, err := os.ReadFile(filepath.Join(dir, "outbound-mail.log"))
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(data), "to: user@example.com"))
		assert.Contains(t, string(data), "token=abc")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)

		htmlFiles := 0
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".html") {
				htmlFiles++
			}
		}
		assert.GreaterOrEqual(t, htmlFiles, 1)
	})

	t.Run("rejects invalid params before writing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		p := validParams()
		p.SendTo = "nope"
		require.Error(t, sender.SendEmail(context.Background(), p))

		_, err := os.Stat(filepath.Join(dir, "outbound-mail.log"))
		assert.True(t, os.IsNotExist(err))
	})
}

type flakySender struct {
	failures int32
	calls    int32
}

func (f *flakySender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return errors.Join(email.ErrFailedToSend, errors.New("connection reset"))
	}
	return nil
}

func retryConfig() email.Config {
	return email.Config{
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
		SendTimeout:   time.Second,
	}
}

func TestRetrySender(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		flaky := &flakySender{failures: 2}
		sender := email.NewRetrySender(flaky, retryConfig(), discardLogger())

		err := sender.SendEmail(context.Background(), validParams())
		require.NoError(t, err)
		assert.Equal(t, int32(3), flaky.calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		t.Parallel()

		flaky := &flakySender{failures: 100}
		sender := email.NewRetrySender(flaky, retryConfig(), discardLogger())

		err := sender.SendEmail(context.Background(), validParams())
		assert.ErrorIs(t, err, email.ErrFailedToSend)
		// initial attempt plus three retries
		assert.Equal(t, int32(4), flaky.calls)
	})

	t.Run("does not retry validation errors", func(t *testing.T) {
		t.Parallel()

		flaky := &flakySender{}
		sender := email.NewRetrySender(flaky, retryConfig(), discardLogger())

		p := validParams()
		p.SendTo = "nope"
		err := sender.SendEmail(context.Background(), p)
		assert.ErrorIs(t, err, email.ErrInvalidParams)
		assert.Zero(t, flaky.calls)
	})
}

func TestNewPostmarkSender(t *testing.T) {
	t.Parallel()

	t.Run("requires tokens", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewPostmarkSender(email.Config{
			SenderEmail:  "noreply@example.com",
			SupportEmail: "support@example.com",
		})
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("requires valid sender identity", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewPostmarkSender(email.Config{
			PostmarkServerToken:  "server-token",
			PostmarkAccountToken: "account-token",
			SenderEmail:          "broken",
			SupportEmail:         "support@example.com",
		})
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})
}

func TestMagicLinkEmail(t *testing.T) {
	t.Parallel()

	t.Run("renders both bodies", func(t *testing.T) {
		t.Parallel()

		m := email.MagicLinkEmail{
			URL:       "https://example.com/auth/callback?token=abc&email=user%40example.com",
			ExpiresIn: 24 * time.Hour,
		}

		text, htmlBody, err := m.Render(context.Background())
		require.NoError(t, err)
		assert.Contains(t, text, m.URL)
		assert.Contains(t, text, "24 hours")
		assert.Contains(t, htmlBody, "24 hours")
		assert.Contains(t, htmlBody, "href=")
	})

	t.Run("escapes the URL in html", func(t *testing.T) {
		t.Parallel()

		m := email.MagicLinkEmail{
			URL:       `https://example.com/cb?a=1&b=<script>`,
			ExpiresIn: time.Hour,
		}

		_, htmlBody, err := m.Render(context.Background())
		require.NoError(t, err)
		assert.NotContains(t, htmlBody, "<script>")
		assert.Contains(t, htmlBody, "&amp;")
	})
}
