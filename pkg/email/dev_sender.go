package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

const devLogFile = "outbound-mail.log"

// DevSender implements Sender for local development. Instead of talking to
// a mail provider it appends each message to a log file and saves the HTML
// body next to it, so magic links can be clicked straight from disk.
type DevSender struct {
	dir string
	mu  sync.Mutex
}

// NewDevSender creates a development sender writing into dir.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir: %v", ErrFailedToSend, err)
	}

	now := time.Now()

	entry := fmt.Sprintf(
		"---\ntime: %s\nto: %s\nsubject: %s\n\n%s\n\n",
		now.Format(time.RFC3339), params.SendTo, params.Subject, params.BodyText,
	)

	logPath := filepath.Join(d.dir, devLogFile)
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open log file: %v", ErrFailedToSend, err)
	}
	defer f.Close()

	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("%w: append log entry: %v", ErrFailedToSend, err)
	}

	if params.BodyHTML != "" {
		name := fmt.Sprintf("%s_%s.html", now.Format("2006_01_02_150405"), safeFilename(params.Subject))
		if err := os.WriteFile(filepath.Join(d.dir, name), []byte(params.BodyHTML), 0o644); err != nil {
			return fmt.Errorf("%w: write html body: %v", ErrFailedToSend, err)
		}
	}

	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func safeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
