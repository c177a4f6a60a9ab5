// Package messaging abstracts outbound message providers behind a small
// closed capability set: rich messages and SMS. Concrete providers fail
// fast with NOT_SUPPORTED for operations they do not implement.
package messaging

import "context"

// SendResult carries the provider's acknowledgment of a successful send.
type SendResult struct {
	RequestID string
	Raw       string
}

// RichMessage is the payload for the rich-message channel (templated
// notification messages such as Kakao AlimTalk).
type RichMessage struct {
	Phone        string
	Message      string
	SenderKey    string
	TemplateCode string
	SenderNo     string
	CID          string
	Fallback     bool
}

// Provider is the uniform send contract over both channel kinds.
type Provider interface {
	Name() string
	SendRichMessage(ctx context.Context, msg RichMessage) (*SendResult, error)
	SendSMS(ctx context.Context, phone, content, from string) (*SendResult, error)
}
