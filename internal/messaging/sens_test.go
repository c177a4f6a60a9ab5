package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyunjae-dev/prooflink/config"
)

func TestSignature_KnownVector(t *testing.T) {
	got := Signature(
		"secret-key",
		"POST",
		"/sms/v2/services/ncp:sms:kr:123:prooflink/messages",
		"1700000000000",
		"access-key",
	)
	want := "fAHpqxHVHGpFH++N2RYs0uHWQ4roARVZstO9LQZc7UY="
	if got != want {
		t.Fatalf("Signature = %q, want %q", got, want)
	}
}

func TestNaverSENS_ConfigValidation(t *testing.T) {
	_, err := NewNaverSENS(config.SENSConfig{AccessKey: "a", SecretKey: "s"}, time.Second)
	if err == nil {
		t.Fatal("expected config error")
	}
	if CodeOf(err) != CodeConfigMissing {
		t.Fatalf("expected CONFIG_MISSING, got %q", CodeOf(err))
	}
}

func TestNaverSENS_SendSMS(t *testing.T) {
	var gotSignature, gotTimestamp, gotAccessKey string
	var gotBody sensSendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("x-ncp-apigw-signature-v2")
		gotTimestamp = r.Header.Get("x-ncp-apigw-timestamp")
		gotAccessKey = r.Header.Get("x-ncp-iam-access-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(sensSendResponse{RequestID: "req-1", StatusCode: "202"})
	}))
	defer srv.Close()

	provider, err := NewNaverSENS(config.SENSConfig{
		BaseURL:   srv.URL,
		AccessKey: "access-key",
		SecretKey: "secret-key",
		ServiceID: "svc-1",
		From:      "0212345678",
	}, time.Second)
	if err != nil {
		t.Fatalf("NewNaverSENS returned error: %v", err)
	}
	fixed := time.UnixMilli(1700000000000)
	provider.now = func() time.Time { return fixed }

	res, err := provider.SendSMS(context.Background(), "01012345678", "hello", "")
	if err != nil {
		t.Fatalf("SendSMS returned error: %v", err)
	}
	if res.RequestID != "req-1" {
		t.Fatalf("unexpected request id %q", res.RequestID)
	}

	if gotTimestamp != "1700000000000" {
		t.Fatalf("unexpected timestamp header %q", gotTimestamp)
	}
	if gotAccessKey != "access-key" {
		t.Fatalf("unexpected access key header %q", gotAccessKey)
	}
	wantSig := Signature("secret-key", "POST", "/sms/v2/services/svc-1/messages", "1700000000000", "access-key")
	if gotSignature != wantSig {
		t.Fatalf("signature mismatch: got %q want %q", gotSignature, wantSig)
	}

	if gotBody.From != "0212345678" {
		t.Fatalf("expected configured from number, got %q", gotBody.From)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].To != "01012345678" {
		t.Fatalf("unexpected messages payload: %+v", gotBody.Messages)
	}
}

func TestNaverSENS_RejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(sensSendResponse{StatusCode: "404", StatusName: "fail"})
	}))
	defer srv.Close()

	provider, err := NewNaverSENS(config.SENSConfig{
		BaseURL:   srv.URL,
		AccessKey: "a",
		SecretKey: "s",
		ServiceID: "svc-1",
		From:      "0212345678",
	}, time.Second)
	if err != nil {
		t.Fatalf("NewNaverSENS returned error: %v", err)
	}

	_, err = provider.SendSMS(context.Background(), "01012345678", "hello", "")
	if CodeOf(err) != CodeProviderRejected {
		t.Fatalf("expected PROVIDER_REJECTED, got %v", err)
	}
}

func TestNaverSENS_RichMessageNotSupported(t *testing.T) {
	provider, err := NewNaverSENS(config.SENSConfig{
		AccessKey: "a", SecretKey: "s", ServiceID: "svc", From: "02",
	}, time.Second)
	if err != nil {
		t.Fatalf("NewNaverSENS returned error: %v", err)
	}
	_, err = provider.SendRichMessage(context.Background(), RichMessage{Phone: "010"})
	var msgErr *Error
	if !errors.As(err, &msgErr) || msgErr.Code != CodeNotSupported {
		t.Fatalf("expected NOT_SUPPORTED, got %v", err)
	}
}
