package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyunjae-dev/prooflink/config"
)

// KakaoIConnect sends AlimTalk rich messages through the Kakao i Connect
// Message API (POST {base}/v2/send/kakao, Bearer auth). SMS is not
// implemented by this provider.
type KakaoIConnect struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

// NewKakaoIConnect validates config and builds the client.
func NewKakaoIConnect(cfg config.KakaoConfig, timeout time.Duration) (*KakaoIConnect, error) {
	if cfg.BaseURL == "" || cfg.AccessToken == "" {
		return nil, NewConfigMissing("kakao i connect config missing", "KAKAOI_BASE_URL or KAKAOI_ACCESS_TOKEN")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KakaoIConnect{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (k *KakaoIConnect) Name() string { return "kakao_i_connect" }

type kakaoSendRequest struct {
	MessageType  string `json:"message_type"`
	SenderKey    string `json:"sender_key"`
	TemplateCode string `json:"template_code"`
	PhoneNumber  string `json:"phone_number"`
	Message      string `json:"message"`
	FallBackYN   bool   `json:"fall_back_yn"`
	SenderNo     string `json:"sender_no,omitempty"`
	CID          string `json:"cid,omitempty"`
}

func (k *KakaoIConnect) SendRichMessage(ctx context.Context, msg RichMessage) (*SendResult, error) {
	if msg.SenderKey == "" || msg.TemplateCode == "" {
		return nil, NewConfigMissing("alimtalk template config missing", "KAKAO_SENDER_KEY or KAKAO_TEMPLATE_PROOF_DONE")
	}

	body, err := json.Marshal(kakaoSendRequest{
		MessageType:  "AT",
		SenderKey:    msg.SenderKey,
		TemplateCode: msg.TemplateCode,
		PhoneNumber:  msg.Phone,
		Message:      msg.Message,
		FallBackYN:   msg.Fallback,
		SenderNo:     msg.SenderNo,
		CID:          msg.CID,
	})
	if err != nil {
		return nil, &Error{Code: CodeSendFailed, Message: "encode request", Details: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+"/v2/send/kakao", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: CodeSendFailed, Message: "build request", Details: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+k.accessToken)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeSendFailed, Message: "kakao i connect request failed", Details: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return nil, NewHTTPError(resp.StatusCode, "kakao i connect http error", string(raw))
	}

	// Rejections can hide in a 2xx body: treat any error field as one.
	var parsed map[string]json.RawMessage
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &parsed); err == nil {
			if _, ok := parsed["error"]; ok {
				return nil, NewRejected("kakao provider rejected request", string(raw))
			}
			if _, ok := parsed["errors"]; ok {
				return nil, NewRejected("kakao provider rejected request", string(raw))
			}
		}
	}

	return &SendResult{
		RequestID: firstString(parsed, "request_id", "requestId", "cid"),
		Raw:       string(raw),
	}, nil
}

func (k *KakaoIConnect) SendSMS(ctx context.Context, phone, content, from string) (*SendResult, error) {
	return nil, NewNotSupported("sms is not supported by kakao i connect provider")
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if raw, ok := fields[key]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				return s
			}
			// numeric ids happen too
			var n json.Number
			if err := json.Unmarshal(raw, &n); err == nil {
				return n.String()
			}
		}
	}
	return ""
}

var _ Provider = (*KakaoIConnect)(nil)
