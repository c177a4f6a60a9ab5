package model

import "time"

// NotificationRole identifies who a delivery attempt targets.
type NotificationRole string

const (
	RoleSender    NotificationRole = "SENDER"
	RoleRecipient NotificationRole = "RECIPIENT"
	RoleReminder  NotificationRole = "REMINDER"
)

// NotificationChannel is the transport used for a delivery attempt.
type NotificationChannel string

const (
	ChannelRichMessage NotificationChannel = "RICH_MESSAGE"
	ChannelSMS         NotificationChannel = "SMS"
)

// NotificationStatus is the lifecycle of one delivery attempt. A row is
// immutable once terminal; a fallback is always a new row.
type NotificationStatus string

const (
	StatusPending      NotificationStatus = "PENDING"
	StatusSent         NotificationStatus = "SENT"
	StatusFailed       NotificationStatus = "FAILED"
	StatusFallbackSent NotificationStatus = "FALLBACK_SENT"
	StatusMockSent     NotificationStatus = "MOCK_SENT"
)

// Notification is one delivery attempt, fallback attempts included.
// PhoneHash is a one-way SHA-256 hash; the raw number is never persisted
// here and never logged.
type Notification struct {
	ID      uint                `db:"id" gorm:"primaryKey"`
	OrderID uint                `db:"order_id" gorm:"not null;index"`
	Role    NotificationRole    `db:"role" gorm:"size:16;not null"`
	Channel NotificationChannel `db:"channel" gorm:"size:16;not null"`
	Status  NotificationStatus  `db:"status" gorm:"size:16;not null;default:PENDING"`

	PhoneHash string `db:"phone_hash" gorm:"size:64;not null"`

	ProviderRequestID string `db:"provider_request_id" gorm:"size:100"`
	ProviderResponse  string `db:"provider_response" gorm:"type:text"`
	MessageURL        string `db:"message_url" gorm:"size:1024"`
	ErrorCode         string `db:"error_code" gorm:"size:64"`
	ErrorMessage      string `db:"error_message" gorm:"type:text"`

	CreatedAt time.Time  `db:"created_at" gorm:"autoCreateTime;index"`
	SentAt    *time.Time `db:"sent_at"`
}
