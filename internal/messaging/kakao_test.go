package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyunjae-dev/prooflink/config"
)

func TestKakaoIConnect_ConfigValidation(t *testing.T) {
	_, err := NewKakaoIConnect(config.KakaoConfig{}, time.Second)
	if CodeOf(err) != CodeConfigMissing {
		t.Fatalf("expected CONFIG_MISSING, got %v", err)
	}
}

func TestKakaoIConnect_SendRichMessage(t *testing.T) {
	var gotAuth string
	var gotBody kakaoSendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"kk-1","status":"OK"}`))
	}))
	defer srv.Close()

	provider, err := NewKakaoIConnect(config.KakaoConfig{
		BaseURL:     srv.URL,
		AccessToken: "token-1",
	}, time.Second)
	if err != nil {
		t.Fatalf("NewKakaoIConnect returned error: %v", err)
	}

	res, err := provider.SendRichMessage(context.Background(), RichMessage{
		Phone:        "01012345678",
		Message:      "delivered",
		SenderKey:    "sk",
		TemplateCode: "tpl",
	})
	if err != nil {
		t.Fatalf("SendRichMessage returned error: %v", err)
	}
	if res.RequestID != "kk-1" {
		t.Fatalf("unexpected request id %q", res.RequestID)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.MessageType != "AT" || gotBody.TemplateCode != "tpl" || gotBody.PhoneNumber != "01012345678" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestKakaoIConnect_RejectionInOKBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid template"}`))
	}))
	defer srv.Close()

	provider, err := NewKakaoIConnect(config.KakaoConfig{BaseURL: srv.URL, AccessToken: "t"}, time.Second)
	if err != nil {
		t.Fatalf("NewKakaoIConnect returned error: %v", err)
	}

	_, err = provider.SendRichMessage(context.Background(), RichMessage{
		Phone: "010", SenderKey: "sk", TemplateCode: "tpl",
	})
	if CodeOf(err) != CodeProviderRejected {
		t.Fatalf("expected PROVIDER_REJECTED, got %v", err)
	}
}

func TestKakaoIConnect_HTTPErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	provider, err := NewKakaoIConnect(config.KakaoConfig{BaseURL: srv.URL, AccessToken: "t"}, time.Second)
	if err != nil {
		t.Fatalf("NewKakaoIConnect returned error: %v", err)
	}

	_, err = provider.SendRichMessage(context.Background(), RichMessage{
		Phone: "010", SenderKey: "sk", TemplateCode: "tpl",
	})
	if CodeOf(err) != "HTTP_502" {
		t.Fatalf("expected HTTP_502, got %v", err)
	}
}

func TestKakaoIConnect_MissingTemplateConfig(t *testing.T) {
	provider, err := NewKakaoIConnect(config.KakaoConfig{BaseURL: "http://example.invalid", AccessToken: "t"}, time.Second)
	if err != nil {
		t.Fatalf("NewKakaoIConnect returned error: %v", err)
	}
	_, err = provider.SendRichMessage(context.Background(), RichMessage{Phone: "010"})
	if CodeOf(err) != CodeConfigMissing {
		t.Fatalf("expected CONFIG_MISSING, got %v", err)
	}

	_, err = provider.SendSMS(context.Background(), "010", "hi", "")
	if CodeOf(err) != CodeNotSupported {
		t.Fatalf("expected NOT_SUPPORTED, got %v", err)
	}
}
