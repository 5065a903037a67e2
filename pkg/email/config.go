package email

import "time"

// Config holds email delivery configuration. The Postmark tokens are empty
// in development, where the file-based sender is used instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@example.com"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@example.com"`

	// DevOutputDir is where the development sender writes outbound mail.
	DevOutputDir string `env:"EMAIL_DEV_OUTPUT_DIR" envDefault:"logs"`

	// Delivery retry policy for transient transport failures.
	RetryAttempts uint64        `env:"EMAIL_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBackoff  time.Duration `env:"EMAIL_RETRY_BACKOFF" envDefault:"500ms"`
	SendTimeout   time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"10s"`
}
