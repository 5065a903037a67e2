package auth_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/mstolbov/passlink/pkg/email"
)

// mockSender records outbound mail and returns the programmed error.
type mockSender struct {
	mock.Mock

	mu   sync.Mutex
	sent []email.SendEmailParams
}

func (m *mockSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	m.mu.Lock()
	m.sent = append(m.sent, params)
	m.mu.Unlock()

	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockSender) lastSent() (email.SendEmailParams, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return email.SendEmailParams{}, false
	}
	return m.sent[len(m.sent)-1], true
}
