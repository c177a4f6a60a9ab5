package messaging

import (
	"context"
	"strings"

	"github.com/hyunjae-dev/prooflink/config"
)

// IsSMSOnlyFamily reports whether the configured provider family only
// speaks SMS, which forces the primary channel to SMS.
func IsSMSOnlyFamily(provider string) bool {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "sens", "sens_sms":
		return true
	}
	return false
}

// IsMock reports whether the configured provider is the mock family.
func IsMock(provider string) bool {
	p := strings.ToLower(strings.TrimSpace(provider))
	return p == "" || p == "mock"
}

// NewPrimary builds the provider selected by configuration.
func NewPrimary(cfg config.MessagingConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "mock":
		return NewMockProvider(), nil
	case "sens", "sens_sms":
		return NewNaverSENS(cfg.SENS, cfg.RequestTimeout)
	case "kakao", "kakao_i_connect":
		return NewKakaoIConnect(cfg.Kakao, cfg.RequestTimeout)
	default:
		return nil, NewConfigMissing("unknown messaging provider", cfg.Provider)
	}
}

// NewSMSFallback builds the provider used for the SMS fallback channel.
// SENS is the only SMS family; mock configs stay mock so test and live
// dispatch share the same code path.
func NewSMSFallback(cfg config.MessagingConfig) (Provider, error) {
	if IsMock(cfg.Provider) {
		return NewMockProvider(), nil
	}
	return NewNaverSENS(cfg.SENS, cfg.RequestTimeout)
}

// unconfigured fails every send with the construction error. It lets a
// service start with incomplete provider config and surface the failure in
// audit rows at send time instead of crashing at boot.
type unconfigured struct {
	err error
}

// Unconfigured wraps a provider construction error as a Provider.
func Unconfigured(err error) Provider { return &unconfigured{err: err} }

func (u *unconfigured) Name() string { return "unconfigured" }

func (u *unconfigured) SendRichMessage(_ context.Context, _ RichMessage) (*SendResult, error) {
	return nil, u.err
}

func (u *unconfigured) SendSMS(_ context.Context, _, _, _ string) (*SendResult, error) {
	return nil, u.err
}
