package messaging

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hyunjae-dev/prooflink/config"
)

// NaverSENS sends SMS through the NAVER Cloud SENS API. Requests are signed
// with the x-ncp-apigw-signature-v2 scheme. Rich messages are not
// implemented by this provider.
type NaverSENS struct {
	baseURL     string
	accessKey   string
	secretKey   string
	serviceID   string
	from        string
	countryCode string
	contentType string
	client      *http.Client

	// now is swappable for signature tests.
	now func() time.Time
}

// NewNaverSENS validates config and builds the client.
func NewNaverSENS(cfg config.SENSConfig, timeout time.Duration) (*NaverSENS, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.ServiceID == "" || cfg.From == "" {
		return nil, NewConfigMissing("sens sms config missing",
			"SENS_ACCESS_KEY / SENS_SECRET_KEY / SENS_SMS_SERVICE_ID / SENS_SMS_FROM")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	countryCode := cfg.CountryCode
	if countryCode == "" {
		countryCode = "82"
	}
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "COMM"
	}
	return &NaverSENS{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessKey:   cfg.AccessKey,
		secretKey:   cfg.SecretKey,
		serviceID:   cfg.ServiceID,
		from:        cfg.From,
		countryCode: countryCode,
		contentType: contentType,
		client:      &http.Client{Timeout: timeout},
		now:         time.Now,
	}, nil
}

func (s *NaverSENS) Name() string { return "sens_sms" }

// Signature builds the x-ncp-apigw-signature-v2 value for a request line.
func Signature(secretKey, method, urlPath, timestampMS, accessKey string) string {
	message := fmt.Sprintf("%s %s\n%s\n%s", method, urlPath, timestampMS, accessKey)
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type sensMessage struct {
	To string `json:"to"`
}

type sensSendRequest struct {
	Type        string        `json:"type"`
	ContentType string        `json:"contentType"`
	CountryCode string        `json:"countryCode"`
	From        string        `json:"from"`
	Content     string        `json:"content"`
	Messages    []sensMessage `json:"messages"`
}

type sensSendResponse struct {
	RequestID  string `json:"requestId"`
	StatusCode string `json:"statusCode"`
	StatusName string `json:"statusName"`
}

func (s *NaverSENS) SendSMS(ctx context.Context, phone, content, from string) (*SendResult, error) {
	if from == "" {
		from = s.from
	}

	urlPath := fmt.Sprintf("/sms/v2/services/%s/messages", s.serviceID)
	timestampMS := strconv.FormatInt(s.now().UnixMilli(), 10)

	body, err := json.Marshal(sensSendRequest{
		Type:        "sms",
		ContentType: s.contentType,
		CountryCode: s.countryCode,
		From:        from,
		Content:     content,
		Messages:    []sensMessage{{To: phone}},
	})
	if err != nil {
		return nil, &Error{Code: CodeSendFailed, Message: "encode request", Details: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+urlPath, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: CodeSendFailed, Message: "build request", Details: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("x-ncp-apigw-timestamp", timestampMS)
	req.Header.Set("x-ncp-iam-access-key", s.accessKey)
	req.Header.Set("x-ncp-apigw-signature-v2", Signature(s.secretKey, http.MethodPost, urlPath, timestampMS, s.accessKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeSendFailed, Message: "sens request failed", Details: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return nil, NewHTTPError(resp.StatusCode, "sens sms http error", string(raw))
	}

	var parsed sensSendResponse
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(raw, &parsed)
	}

	// SENS signals business rejections via statusCode inside a 2xx body.
	if strings.HasPrefix(parsed.StatusCode, "4") || strings.HasPrefix(parsed.StatusCode, "5") {
		return nil, NewRejected("sens rejected request", string(raw))
	}

	return &SendResult{RequestID: parsed.RequestID, Raw: string(raw)}, nil
}

func (s *NaverSENS) SendRichMessage(ctx context.Context, msg RichMessage) (*SendResult, error) {
	return nil, NewNotSupported("rich messages are not supported by naver sens provider")
}

var _ Provider = (*NaverSENS)(nil)
