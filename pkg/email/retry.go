package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mstolbov/passlink/pkg/logger"
)

// RetrySender wraps a Sender with bounded retries and a per-attempt timeout.
// Transport failures are retried with exponential backoff; validation errors
// are returned immediately since retrying cannot fix them.
type RetrySender struct {
	next     Sender
	attempts uint64
	backoff  time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

// NewRetrySender wraps next with the retry policy from cfg.
func NewRetrySender(next Sender, cfg Config, log *slog.Logger) *RetrySender {
	return &RetrySender{
		next:     next,
		attempts: cfg.RetryAttempts,
		backoff:  cfg.RetryBackoff,
		timeout:  cfg.SendTimeout,
		log:      log,
	}
}

func (s *RetrySender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(s.attempts, retry.NewExponential(s.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.next.SendEmail(attemptCtx, params); err != nil {
			if errors.Is(err, ErrInvalidParams) {
				return err
			}
			s.log.WarnContext(ctx, "email delivery attempt failed",
				slog.String("subject", params.Subject),
				logger.Error(err),
				logger.Component("email"),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	return nil
}
