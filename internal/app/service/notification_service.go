package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyunjae-dev/prooflink/config"
	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
	"github.com/hyunjae-dev/prooflink/internal/infra/prometheus"
	"github.com/hyunjae-dev/prooflink/internal/messaging"
	"github.com/hyunjae-dev/prooflink/internal/queue"
	"github.com/hyunjae-dev/prooflink/internal/security"
)

// providerResponseLimit caps stored provider payloads.
const providerResponseLimit = 4000

// Dispatcher schedules notification deliveries. ProofService depends on
// this interface so tests can observe dispatches without a queue.
type Dispatcher interface {
	DispatchDual(ctx context.Context, order *model.Order) error
}

// ReminderResult reports one order's outcome in a reminder sweep.
type ReminderResult struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// ReminderReport summarizes a reminder sweep.
type ReminderReport struct {
	Total   int              `json:"total"`
	Sent    int              `json:"sent_count"`
	Skipped int              `json:"skipped_count"`
	Failed  int              `json:"failed_count"`
	Results []ReminderResult `json:"results"`
}

// NotificationService orchestrates per-recipient delivery: channel
// selection, templating, retry, fallback, and durable audit rows.
type NotificationService struct {
	logger        *zap.Logger
	cfg           *config.Config
	orders        repository.OrderRepository
	tokens        repository.TokenRepository
	notifications repository.NotificationRepository
	shortLinks    *ShortLinkService
	cipher        *security.PhoneCipher
	primary       messaging.Provider
	smsFallback   messaging.Provider
	enqueuer      queue.Enqueuer
}

// NewNotificationService wires the dispatcher. smsFallback may equal
// primary when the primary family is already SMS.
func NewNotificationService(
	logger *zap.Logger,
	cfg *config.Config,
	orders repository.OrderRepository,
	tokens repository.TokenRepository,
	notifications repository.NotificationRepository,
	shortLinks *ShortLinkService,
	cipher *security.PhoneCipher,
	primary messaging.Provider,
	smsFallback messaging.Provider,
	enqueuer queue.Enqueuer,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger:        logger,
		cfg:           cfg,
		orders:        orders,
		tokens:        tokens,
		notifications: notifications,
		shortLinks:    shortLinks,
		cipher:        cipher,
		primary:       primary,
		smsFallback:   smsFallback,
		enqueuer:      enqueuer,
	}
}

// DispatchDual schedules independent deliveries to the sender and, when
// present, the recipient. Each is an isolated unit of work: a decrypt or
// enqueue failure on one side never blocks the other.
func (s *NotificationService) DispatchDual(ctx context.Context, order *model.Order) error {
	if order == nil {
		return nil
	}

	if phone, err := s.cipher.Decrypt(order.SenderPhoneEnc); err != nil {
		s.logger.Error("sender phone decrypt failed",
			zap.Uint("order_id", order.ID), zap.Error(err))
	} else if security.CleanPhone(phone) != "" {
		if err := s.enqueuer.EnqueueDeliver(ctx, queue.DeliverPayload{
			OrderID: order.ID,
			Role:    model.RoleSender,
		}); err != nil {
			s.logger.Error("failed to enqueue sender delivery",
				zap.Uint("order_id", order.ID), zap.Error(err))
		}
	}

	if order.RecipientPhoneEnc != "" {
		if phone, err := s.cipher.Decrypt(order.RecipientPhoneEnc); err != nil {
			s.logger.Error("recipient phone decrypt failed",
				zap.Uint("order_id", order.ID), zap.Error(err))
		} else if security.CleanPhone(phone) != "" {
			if err := s.enqueuer.EnqueueDeliver(ctx, queue.DeliverPayload{
				OrderID: order.ID,
				Role:    model.RoleRecipient,
			}); err != nil {
				s.logger.Error("failed to enqueue recipient delivery",
					zap.Uint("order_id", order.ID), zap.Error(err))
			}
		}
	}

	return nil
}

// DispatchReminder schedules a single reminder delivery to the sender.
// Reminders always go out over SMS.
func (s *NotificationService) DispatchReminder(ctx context.Context, order *model.Order) error {
	if order == nil {
		return nil
	}
	return s.enqueuer.EnqueueDeliver(ctx, queue.DeliverPayload{
		OrderID: order.ID,
		Role:    model.RoleReminder,
	})
}

// SendReminders runs the reminder sweep for one organization: orders still
// waiting on a proof whose token is older than the cutoff, capped per
// order by maxReminders.
func (s *NotificationService) SendReminders(ctx context.Context, organizationID uint, orderIDs []uint, olderThan time.Duration, maxReminders int) (*ReminderReport, error) {
	if maxReminders <= 0 {
		maxReminders = 1
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	orders, err := s.orders.ListAwaitingProof(ctx, organizationID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	if len(orderIDs) > 0 {
		wanted := make(map[uint]struct{}, len(orderIDs))
		for _, id := range orderIDs {
			wanted[id] = struct{}{}
		}
		filtered := orders[:0]
		for _, o := range orders {
			if _, ok := wanted[o.ID]; ok {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	report := &ReminderReport{Total: len(orders)}
	for i := range orders {
		order := orders[i]
		count, err := s.notifications.CountByOrderAndRole(ctx, order.ID, model.RoleReminder)
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, ReminderResult{
				OrderID: order.ID, OrderNumber: order.OrderNumber,
				Message: fmt.Sprintf("count reminders: %v", err),
			})
			continue
		}
		if count >= int64(maxReminders) {
			report.Skipped++
			report.Results = append(report.Results, ReminderResult{
				OrderID: order.ID, OrderNumber: order.OrderNumber,
				Message: fmt.Sprintf("skipped: already sent %d reminder(s)", count),
			})
			continue
		}
		if err := s.DispatchReminder(ctx, &order); err != nil {
			report.Failed++
			report.Results = append(report.Results, ReminderResult{
				OrderID: order.ID, OrderNumber: order.OrderNumber,
				Message: fmt.Sprintf("enqueue: %v", err),
			})
			continue
		}
		report.Sent++
		report.Results = append(report.Results, ReminderResult{
			OrderID: order.ID, OrderNumber: order.OrderNumber,
			Success: true, Message: "reminder queued",
		})
	}
	return report, nil
}

// ListByOrder exposes the audit trail for the admin boundary.
func (s *NotificationService) ListByOrder(ctx context.Context, orderID uint) ([]model.Notification, error) {
	return s.notifications.ListByOrder(ctx, orderID)
}

// Deliver executes one delivery unit of work, normally inside the worker.
// Every attempt leaves an audit row; the row is created PENDING before any
// provider call so a crash mid-send is still visible.
func (s *NotificationService) Deliver(ctx context.Context, orderID uint, role model.NotificationRole) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	phoneEnc := order.SenderPhoneEnc
	if role == model.RoleRecipient {
		phoneEnc = order.RecipientPhoneEnc
	}
	phone, err := s.cipher.Decrypt(phoneEnc)
	if err != nil {
		return fmt.Errorf("decrypt phone: %w", err)
	}
	phone = security.CleanPhone(phone)
	if phone == "" {
		s.logger.Warn("no phone for delivery",
			zap.Uint("order_id", orderID), zap.String("role", string(role)))
		return nil
	}
	phoneHash := security.HashPhone(phone)

	// The token may already be consumed (terminal proof uploads invalidate
	// it); the proof page keeps working, so any bound token serves.
	var tokenValue string
	if row, err := s.tokens.GetByOrderID(ctx, orderID); err == nil {
		tokenValue = row.Token
	}

	base := shortBaseForOrder(order.Organization, s.cfg.App)
	var shortURL string
	if tokenValue != "" {
		if link, err := s.shortLinks.ResolveOrCreate(ctx, orderID, tokenValue); err != nil {
			s.logger.Error("short link resolution failed",
				zap.Uint("order_id", orderID), zap.Error(err))
		} else {
			shortURL = fmt.Sprintf("%s/s/%s", base, link.Code)
		}
	}

	channel := model.ChannelRichMessage
	if role == model.RoleReminder || messaging.IsSMSOnlyFamily(s.cfg.Messaging.Provider) {
		channel = model.ChannelSMS
	}

	messageURL := shortURL
	if messageURL == "" {
		if tokenValue != "" {
			messageURL = fmt.Sprintf("%s/p/%s", base, tokenValue)
		} else {
			messageURL = base
		}
	}

	notification := &model.Notification{
		OrderID:    orderID,
		Role:       role,
		Channel:    channel,
		Status:     model.StatusPending,
		PhoneHash:  phoneHash,
		MessageURL: messageURL,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	templates := templatesForOrder(order.Organization, s.cfg.Messaging)
	tmplCtx := TemplateContext{
		Brand:     brandForOrder(order.Organization, s.cfg.App),
		URL:       messageURL,
		Order:     order.OrderNumber,
		Context:   order.Context,
		Sender:    order.SenderName,
		Recipient: order.RecipientName,
	}

	if messaging.IsMock(s.cfg.Messaging.Provider) {
		return s.finishMock(ctx, notification, role, channel, templates, tmplCtx)
	}

	// SMS deliveries need an SMS-capable client; rich-only primaries
	// reject SendSMS outright. The SENS family wires the same provider
	// into both slots.
	provider := s.primary
	if channel == model.ChannelSMS && s.smsFallback != nil {
		provider = s.smsFallback
	}

	res, err := s.sendWithRetry(ctx, provider, phone, role, channel, templates, tmplCtx)
	if err != nil {
		code := messaging.CodeOf(err)
		s.logger.Error("notification failed",
			zap.Uint("order_id", orderID),
			zap.String("role", string(role)),
			zap.String("channel", string(channel)),
			zap.String("code", code),
			zap.String("phone_hash", phoneHash),
			zap.Error(err),
		)
		notification.Status = model.StatusFailed
		notification.ErrorCode = code
		notification.ErrorMessage = truncate(messaging.DetailsOf(err), providerResponseLimit)
		if uerr := s.notifications.Update(ctx, notification); uerr != nil {
			s.logger.Error("failed to persist notification failure", zap.Error(uerr))
		}
		prometheus.NotificationAttempts.WithLabelValues(string(channel), string(model.StatusFailed)).Inc()

		// Fallback applies only to failed rich-message primaries.
		if channel == model.ChannelRichMessage && templates.FallbackEnabled {
			s.sendSMSFallback(ctx, order, role, phone, phoneHash, templates, tmplCtx)
		}
		return nil
	}

	now := time.Now().UTC()
	notification.Status = model.StatusSent
	notification.SentAt = &now
	notification.ProviderRequestID = res.RequestID
	notification.ProviderResponse = truncate(res.Raw, providerResponseLimit)
	// The message left the provider; a persist failure must not trigger a
	// queue-level redo of the send. Log and keep the row PENDING.
	if err := s.notifications.Update(ctx, notification); err != nil {
		s.logger.Error("failed to persist notification result",
			zap.Uint("order_id", orderID), zap.Error(err))
	}
	prometheus.NotificationAttempts.WithLabelValues(string(channel), string(model.StatusSent)).Inc()

	s.logger.Info("notification sent",
		zap.Uint("order_id", orderID),
		zap.String("role", string(role)),
		zap.String("channel", string(channel)),
		zap.String("phone_hash", phoneHash),
		zap.String("request_id", res.RequestID),
	)
	return nil
}

func (s *NotificationService) finishMock(ctx context.Context, notification *model.Notification, role model.NotificationRole, channel model.NotificationChannel, templates messageTemplates, tmplCtx TemplateContext) error {
	// Mock mode renders like a live send so audit rows stay comparable.
	message := renderFor(role, channel, templates, tmplCtx)
	s.logger.Info("mock notification",
		zap.Uint("order_id", notification.OrderID),
		zap.String("role", string(role)),
		zap.String("channel", string(channel)),
		zap.String("phone_hash", notification.PhoneHash),
		zap.Int("message_len", len(message)),
	)
	now := time.Now().UTC()
	notification.Status = model.StatusMockSent
	notification.SentAt = &now
	notification.ProviderResponse = "MOCK"
	if err := s.notifications.Update(ctx, notification); err != nil {
		s.logger.Error("failed to persist mock notification",
			zap.Uint("order_id", notification.OrderID), zap.Error(err))
	}
	prometheus.NotificationAttempts.WithLabelValues(string(channel), string(model.StatusMockSent)).Inc()
	return nil
}

func (s *NotificationService) sendWithRetry(ctx context.Context, provider messaging.Provider, phone string, role model.NotificationRole, channel model.NotificationChannel, templates messageTemplates, tmplCtx TemplateContext) (*messaging.SendResult, error) {
	message := renderFor(role, channel, templates, tmplCtx)

	op := func(ctx context.Context) (*messaging.SendResult, error) {
		if channel == model.ChannelSMS {
			return provider.SendSMS(ctx, phone, message, s.cfg.Messaging.SENS.From)
		}
		return provider.SendRichMessage(ctx, messaging.RichMessage{
			Phone:        phone,
			Message:      message,
			SenderKey:    s.cfg.Messaging.Kakao.SenderKey,
			TemplateCode: templates.KakaoTemplateCode,
			SenderNo:     s.cfg.Messaging.Kakao.SenderNo,
			CID:          s.cfg.Messaging.Kakao.CID,
		})
	}
	return messaging.RunWithRetry(ctx, op, s.cfg.Messaging.MaxRetries, s.cfg.Messaging.RetryBaseDelay)
}

// sendSMSFallback creates and attempts an independent SMS row after a
// failed rich-message primary. Its own failure is terminal; nothing
// cascades further.
func (s *NotificationService) sendSMSFallback(ctx context.Context, order *model.Order, role model.NotificationRole, phone, phoneHash string, templates messageTemplates, tmplCtx TemplateContext) {
	fallback := &model.Notification{
		OrderID:    order.ID,
		Role:       role,
		Channel:    model.ChannelSMS,
		Status:     model.StatusPending,
		PhoneHash:  phoneHash,
		MessageURL: tmplCtx.URL,
	}
	if err := s.notifications.Create(ctx, fallback); err != nil {
		s.logger.Error("failed to create fallback notification",
			zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}

	now := time.Now().UTC()
	res, err := s.sendWithRetry(ctx, s.smsFallback, phone, role, model.ChannelSMS, templates, tmplCtx)
	if err != nil {
		fallback.Status = model.StatusFailed
		fallback.ErrorCode = messaging.CodeOf(err)
		fallback.ErrorMessage = truncate(messaging.DetailsOf(err), providerResponseLimit)
		s.logger.Error("sms fallback failed",
			zap.Uint("order_id", order.ID),
			zap.String("role", string(role)),
			zap.String("code", fallback.ErrorCode),
			zap.String("phone_hash", phoneHash),
		)
		prometheus.NotificationAttempts.WithLabelValues(string(model.ChannelSMS), string(model.StatusFailed)).Inc()
	} else {
		fallback.Status = model.StatusFallbackSent
		fallback.SentAt = &now
		fallback.ProviderRequestID = res.RequestID
		fallback.ProviderResponse = truncate(res.Raw, providerResponseLimit)
		prometheus.NotificationAttempts.WithLabelValues(string(model.ChannelSMS), string(model.StatusFallbackSent)).Inc()
	}
	if err := s.notifications.Update(ctx, fallback); err != nil {
		s.logger.Error("failed to persist fallback result",
			zap.Uint("order_id", order.ID), zap.Error(err))
	}
}

func renderFor(role model.NotificationRole, channel model.NotificationChannel, templates messageTemplates, tmplCtx TemplateContext) string {
	var template string
	switch {
	case role == model.RoleReminder:
		template = templates.Reminder
	case channel == model.ChannelSMS && role == model.RoleRecipient:
		template = templates.SMSRecipient
	case channel == model.ChannelSMS:
		template = templates.SMSSender
	case role == model.RoleRecipient:
		template = templates.RichRecipient
	default:
		template = templates.RichSender
	}
	return RenderTemplate(template, tmplCtx)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

var _ Dispatcher = (*NotificationService)(nil)
