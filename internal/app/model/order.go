package model

import "time"

// OrderStatus tracks the delivery-proof lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"        // order created, no token yet
	OrderStatusTokenIssued   OrderStatus = "TOKEN_ISSUED"   // QR token generated
	OrderStatusProofUploaded OrderStatus = "PROOF_UPLOADED" // terminal proof photo uploaded
	OrderStatusNotified      OrderStatus = "NOTIFIED"
	OrderStatusCompleted     OrderStatus = "COMPLETED"
)

// Order is a delivery order with sender and optional recipient contacts.
// Phone numbers are stored encrypted; only hashes ever reach logs.
type Order struct {
	ID             uint   `db:"id" gorm:"primaryKey"`
	OrganizationID uint   `db:"organization_id" gorm:"not null;index"`
	OrderNumber    string `db:"order_number" gorm:"size:100;not null"`
	Context        string `db:"context" gorm:"size:500"`
	AssetMeta      []byte `db:"asset_meta" gorm:"type:jsonb"`

	SenderName     string `db:"sender_name" gorm:"size:100;not null"`
	SenderPhoneEnc string `db:"sender_phone_enc" gorm:"type:text;not null"`

	RecipientName     string `db:"recipient_name" gorm:"size:100"`
	RecipientPhoneEnc string `db:"recipient_phone_enc" gorm:"type:text"`

	Status    OrderStatus `db:"status" gorm:"size:20;not null;default:PENDING;index"`
	CreatedAt time.Time   `db:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time   `db:"updated_at" gorm:"autoUpdateTime"`

	Organization *Organization `gorm:"foreignKey:OrganizationID"`
}
