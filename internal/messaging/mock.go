package messaging

import (
	"context"
	"sync"
)

// MockProvider records sends without external calls. It exists so the full
// dispatch path (audit rows included) can run in development and tests.
type MockProvider struct {
	mu sync.Mutex

	RichCalls []RichMessage
	SMSCalls  []string

	// Err, when set, is returned from every send.
	Err error
}

// NewMockProvider returns an empty mock.
func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) SendRichMessage(ctx context.Context, msg RichMessage) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.RichCalls = append(m.RichCalls, msg)
	return &SendResult{RequestID: "MOCK", Raw: "MOCK"}, nil
}

func (m *MockProvider) SendSMS(ctx context.Context, phone, content, from string) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.SMSCalls = append(m.SMSCalls, content)
	return &SendResult{RequestID: "MOCK", Raw: "MOCK"}, nil
}

var _ Provider = (*MockProvider)(nil)
