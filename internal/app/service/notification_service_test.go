package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyunjae-dev/prooflink/config"
	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/messaging"
	"github.com/hyunjae-dev/prooflink/internal/security"
)

type notifyFixture struct {
	svc           *NotificationService
	cfg           *config.Config
	cipher        *security.PhoneCipher
	orders        *mockOrderRepository
	tokens        *mockTokenRepository
	notifications *mockNotificationRepository
	shortRepo     *mockShortLinkRepository
	enqueuer      *mockEnqueuer
	primary       *messaging.MockProvider
	fallback      *messaging.MockProvider
}

func newNotifyFixture(t *testing.T, provider string) *notifyFixture {
	t.Helper()

	cipher, err := security.NewPhoneCipher("test-secret")
	if err != nil {
		t.Fatalf("NewPhoneCipher returned error: %v", err)
	}

	cfg := testConfig()
	cfg.Messaging = config.MessagingConfig{
		Provider:           provider,
		MaxRetries:         0,
		RetryBaseDelay:     time.Millisecond,
		FallbackSMSEnabled: true,
		SENS:               config.SENSConfig{From: "0212345678"},
		Kakao:              config.KakaoConfig{SenderKey: "sk", TemplateCode: "tpl"},
		Templates: config.TemplateConfig{
			RichSender:    "rich sender {order} {url}",
			RichRecipient: "rich recipient {order} {url}",
			SMSSender:     "sms sender {order} {url}",
			SMSRecipient:  "sms recipient {order} {url}",
			Reminder:      "reminder {order} {url}",
		},
	}

	f := &notifyFixture{
		cfg:           cfg,
		cipher:        cipher,
		orders:        &mockOrderRepository{},
		tokens:        &mockTokenRepository{},
		notifications: &mockNotificationRepository{},
		shortRepo:     &mockShortLinkRepository{},
		enqueuer:      &mockEnqueuer{},
		primary:       messaging.NewMockProvider(),
		fallback:      messaging.NewMockProvider(),
	}

	f.tokens.getByOrderFn = func(ctx context.Context, orderID uint) (*model.ProofToken, error) {
		return &model.ProofToken{Token: "tok-1", OrderID: orderID, IsValid: false}, nil
	}
	f.shortRepo.getByOrderFn = func(ctx context.Context, orderID uint) (*model.ShortLink, error) {
		return &model.ShortLink{ID: 1, Code: "AB23CDE", OrderID: orderID, TargetPath: "/p", TargetToken: "tok-1"}, nil
	}

	// SMS-only families run the same provider in both slots, as in main.
	if messaging.IsSMSOnlyFamily(provider) {
		f.fallback = f.primary
	}

	shortLinks := NewShortLinkService(nil, f.shortRepo, f.orders, cfg.App, 7)
	f.svc = NewNotificationService(nil, cfg, f.orders, f.tokens, f.notifications,
		shortLinks, cipher, f.primary, f.fallback, f.enqueuer)
	return f
}

func (f *notifyFixture) order(t *testing.T, withRecipient bool) *model.Order {
	t.Helper()
	senderEnc, err := f.cipher.Encrypt("010-1111-2222")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	order := &model.Order{
		ID:             1,
		OrganizationID: 1,
		OrderNumber:    "ORD-1",
		SenderName:     "Lee",
		SenderPhoneEnc: senderEnc,
	}
	if withRecipient {
		recipientEnc, err := f.cipher.Encrypt("010-3333-4444")
		if err != nil {
			t.Fatalf("Encrypt returned error: %v", err)
		}
		order.RecipientName = "Kim"
		order.RecipientPhoneEnc = recipientEnc
	}
	return order
}

func TestNotificationService_DispatchDual_BothRoles(t *testing.T) {
	f := newNotifyFixture(t, "mock")

	if err := f.svc.DispatchDual(context.Background(), f.order(t, true)); err != nil {
		t.Fatalf("DispatchDual returned error: %v", err)
	}
	if len(f.enqueuer.payloads) != 2 {
		t.Fatalf("expected 2 enqueued deliveries, got %d", len(f.enqueuer.payloads))
	}
	if f.enqueuer.payloads[0].Role != model.RoleSender || f.enqueuer.payloads[1].Role != model.RoleRecipient {
		t.Fatalf("unexpected roles: %+v", f.enqueuer.payloads)
	}
}

func TestNotificationService_DispatchDual_SenderOnly(t *testing.T) {
	f := newNotifyFixture(t, "mock")

	if err := f.svc.DispatchDual(context.Background(), f.order(t, false)); err != nil {
		t.Fatalf("DispatchDual returned error: %v", err)
	}
	if len(f.enqueuer.payloads) != 1 || f.enqueuer.payloads[0].Role != model.RoleSender {
		t.Fatalf("expected sender-only dispatch, got %+v", f.enqueuer.payloads)
	}
}

func TestNotificationService_DispatchDual_DecryptFailureIsolated(t *testing.T) {
	f := newNotifyFixture(t, "mock")
	order := f.order(t, true)
	order.SenderPhoneEnc = "corrupted-ciphertext"

	if err := f.svc.DispatchDual(context.Background(), order); err != nil {
		t.Fatalf("DispatchDual returned error: %v", err)
	}
	// The broken sender side must not block the recipient.
	if len(f.enqueuer.payloads) != 1 || f.enqueuer.payloads[0].Role != model.RoleRecipient {
		t.Fatalf("expected recipient delivery to survive, got %+v", f.enqueuer.payloads)
	}
}

func TestNotificationService_Deliver_MockProvider(t *testing.T) {
	f := newNotifyFixture(t, "mock")
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }

	if err := f.svc.Deliver(context.Background(), 1, model.RoleSender); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	if len(f.notifications.created) != 1 {
		t.Fatalf("expected one audit row, got %d", len(f.notifications.created))
	}
	row := f.notifications.created[0]
	if row.Status != model.StatusMockSent {
		t.Fatalf("expected MOCK_SENT, got %q", row.Status)
	}
	if row.ProviderResponse != "MOCK" {
		t.Fatalf("unexpected provider response %q", row.ProviderResponse)
	}
	if row.Channel != model.ChannelRichMessage {
		t.Fatalf("expected rich channel, got %q", row.Channel)
	}
	if row.PhoneHash != security.HashPhone("01011112222") {
		t.Fatalf("expected hash of cleaned phone, got %q", row.PhoneHash)
	}
	if !strings.Contains(row.MessageURL, "/s/AB23CDE") {
		t.Fatalf("expected short link URL, got %q", row.MessageURL)
	}
	if row.SentAt == nil {
		t.Fatal("expected sent timestamp")
	}
}

func TestNotificationService_Deliver_SendsRichMessage(t *testing.T) {
	f := newNotifyFixture(t, "kakao")
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }

	if err := f.svc.Deliver(context.Background(), 1, model.RoleSender); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	if len(f.primary.RichCalls) != 1 {
		t.Fatalf("expected one rich send, got %d", len(f.primary.RichCalls))
	}
	sent := f.primary.RichCalls[0]
	if sent.Phone != "01011112222" {
		t.Fatalf("expected cleaned phone, got %q", sent.Phone)
	}
	if !strings.Contains(sent.Message, "ORD-1") || !strings.Contains(sent.Message, "/s/AB23CDE") {
		t.Fatalf("unexpected message %q", sent.Message)
	}

	row := f.notifications.created[0]
	if row.Status != model.StatusSent || row.ProviderRequestID != "MOCK" {
		t.Fatalf("unexpected audit row: %+v", row)
	}
}

func TestNotificationService_Deliver_FallbackAfterRichFailure(t *testing.T) {
	f := newNotifyFixture(t, "kakao")
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }
	f.primary.Err = messaging.NewRejected("template rejected", "raw body")

	if err := f.svc.Deliver(context.Background(), 1, model.RoleSender); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	if len(f.notifications.created) != 2 {
		t.Fatalf("expected failed row plus fallback row, got %d", len(f.notifications.created))
	}

	failed := f.notifications.created[0]
	if failed.Status != model.StatusFailed || failed.Channel != model.ChannelRichMessage {
		t.Fatalf("unexpected primary row: %+v", failed)
	}
	if failed.ErrorCode != messaging.CodeProviderRejected {
		t.Fatalf("expected PROVIDER_REJECTED, got %q", failed.ErrorCode)
	}
	if failed.ErrorMessage != "raw body" {
		t.Fatalf("expected provider details persisted, got %q", failed.ErrorMessage)
	}

	fb := f.notifications.created[1]
	if fb.Status != model.StatusFallbackSent || fb.Channel != model.ChannelSMS {
		t.Fatalf("unexpected fallback row: %+v", fb)
	}
	if len(f.fallback.SMSCalls) != 1 {
		t.Fatalf("expected one fallback SMS, got %d", len(f.fallback.SMSCalls))
	}
	if !strings.Contains(f.fallback.SMSCalls[0], "sms sender") {
		t.Fatalf("expected SMS template for the fallback, got %q", f.fallback.SMSCalls[0])
	}
}

func TestNotificationService_Deliver_NoFallbackWhenDisabled(t *testing.T) {
	f := newNotifyFixture(t, "kakao")
	f.cfg.Messaging.FallbackSMSEnabled = false
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }
	f.primary.Err = messaging.NewRejected("template rejected", "raw body")

	if err := f.svc.Deliver(context.Background(), 1, model.RoleSender); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if len(f.notifications.created) != 1 {
		t.Fatalf("expected single failed row, got %d", len(f.notifications.created))
	}
	if len(f.fallback.SMSCalls) != 0 {
		t.Fatal("fallback must not fire when disabled")
	}
}

func TestNotificationService_Deliver_NoFallbackForSMSPrimary(t *testing.T) {
	f := newNotifyFixture(t, "sens")
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }
	f.primary.Err = messaging.NewRejected("rejected", "raw")

	if err := f.svc.Deliver(context.Background(), 1, model.RoleSender); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	// A failed SMS primary is terminal even with fallback enabled.
	if len(f.notifications.created) != 1 {
		t.Fatalf("expected single row, got %d", len(f.notifications.created))
	}
	if f.notifications.created[0].Channel != model.ChannelSMS {
		t.Fatalf("expected SMS channel for sens family, got %q", f.notifications.created[0].Channel)
	}
}

func TestNotificationService_Deliver_ReminderAlwaysSMS(t *testing.T) {
	f := newNotifyFixture(t, "kakao")
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }

	if err := f.svc.Deliver(context.Background(), 1, model.RoleReminder); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	row := f.notifications.created[0]
	if row.Channel != model.ChannelSMS || row.Role != model.RoleReminder {
		t.Fatalf("unexpected reminder row: %+v", row)
	}
	if len(f.fallback.SMSCalls) != 1 || !strings.Contains(f.fallback.SMSCalls[0], "reminder") {
		t.Fatalf("expected reminder template over SMS, got %+v", f.fallback.SMSCalls)
	}
	if len(f.primary.SMSCalls) != 0 {
		t.Fatalf("expected no SMS on the rich-message provider, got %+v", f.primary.SMSCalls)
	}
}

// richOnlyProvider mimics a rich-message client that cannot carry SMS.
type richOnlyProvider struct {
	messaging.MockProvider
}

func (p *richOnlyProvider) SendSMS(ctx context.Context, phone, content, from string) (*messaging.SendResult, error) {
	return nil, messaging.NewNotSupported("sms not supported")
}

func TestNotificationService_Deliver_ReminderWithRichOnlyPrimary(t *testing.T) {
	f := newNotifyFixture(t, "kakao")
	primary := &richOnlyProvider{}
	shortLinks := NewShortLinkService(nil, f.shortRepo, f.orders, f.cfg.App, 7)
	f.svc = NewNotificationService(nil, f.cfg, f.orders, f.tokens, f.notifications,
		shortLinks, f.cipher, primary, f.fallback, f.enqueuer)
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }

	if err := f.svc.Deliver(context.Background(), 1, model.RoleReminder); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	row := f.notifications.created[0]
	if row.Status != model.StatusSent || row.Channel != model.ChannelSMS {
		t.Fatalf("unexpected reminder row: %+v", row)
	}
	if len(f.fallback.SMSCalls) != 1 || !strings.Contains(f.fallback.SMSCalls[0], "reminder") {
		t.Fatalf("expected reminder SMS on the SMS provider, got %+v", f.fallback.SMSCalls)
	}
}

func TestNotificationService_Deliver_PersistFailureAfterSend(t *testing.T) {
	f := newNotifyFixture(t, "kakao")
	order := f.order(t, false)
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }
	f.notifications.updateFn = func(ctx context.Context, n *model.Notification) error {
		return errors.New("connection reset")
	}

	// The send already happened; surfacing the persist error would make
	// the queue redeliver and the message go out twice.
	if err := f.svc.Deliver(context.Background(), 1, model.RoleSender); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if len(f.primary.RichCalls) != 1 {
		t.Fatalf("expected one rich send, got %d", len(f.primary.RichCalls))
	}
}

func TestNotificationService_Deliver_MissingPhoneSkips(t *testing.T) {
	f := newNotifyFixture(t, "kakao")
	order := f.order(t, false)
	order.RecipientPhoneEnc = ""
	f.orders.getFn = func(ctx context.Context, id uint) (*model.Order, error) { return order, nil }

	if err := f.svc.Deliver(context.Background(), 1, model.RoleRecipient); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if len(f.notifications.created) != 0 {
		t.Fatal("no audit row for a contact without a phone")
	}
}

func TestNotificationService_SendReminders_CapsPerOrder(t *testing.T) {
	f := newNotifyFixture(t, "mock")
	f.orders.listAwaitingFn = func(ctx context.Context, organizationID uint, before time.Time) ([]model.Order, error) {
		return []model.Order{
			{ID: 1, OrderNumber: "ORD-1"},
			{ID: 2, OrderNumber: "ORD-2"},
		}, nil
	}
	f.notifications.countFn = func(ctx context.Context, orderID uint, role model.NotificationRole) (int64, error) {
		if orderID == 2 {
			return 2, nil
		}
		return 0, nil
	}

	report, err := f.svc.SendReminders(context.Background(), 1, nil, 24*time.Hour, 2)
	if err != nil {
		t.Fatalf("SendReminders returned error: %v", err)
	}
	if report.Total != 2 || report.Sent != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(f.enqueuer.payloads) != 1 || f.enqueuer.payloads[0].Role != model.RoleReminder {
		t.Fatalf("expected one reminder enqueue, got %+v", f.enqueuer.payloads)
	}
}

func TestNotificationService_SendReminders_FiltersByOrderIDs(t *testing.T) {
	f := newNotifyFixture(t, "mock")
	f.orders.listAwaitingFn = func(ctx context.Context, organizationID uint, before time.Time) ([]model.Order, error) {
		return []model.Order{
			{ID: 1, OrderNumber: "ORD-1"},
			{ID: 2, OrderNumber: "ORD-2"},
			{ID: 3, OrderNumber: "ORD-3"},
		}, nil
	}

	report, err := f.svc.SendReminders(context.Background(), 1, []uint{2}, 24*time.Hour, 2)
	if err != nil {
		t.Fatalf("SendReminders returned error: %v", err)
	}
	if report.Total != 1 || report.Sent != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if f.enqueuer.payloads[0].OrderID != 2 {
		t.Fatalf("expected order 2 only, got %+v", f.enqueuer.payloads)
	}
}
