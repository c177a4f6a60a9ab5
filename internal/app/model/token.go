package model

import "time"

// ProofToken is the single-use QR token bound 1:1 to an order. The unique
// constraint on OrderID is the real guard against concurrent issuance; the
// service-level reuse check is an optimization on top of it.
type ProofToken struct {
	ID        uint       `db:"id" gorm:"primaryKey"`
	Token     string     `db:"token" gorm:"size:64;uniqueIndex;not null"`
	OrderID   uint       `db:"order_id" gorm:"uniqueIndex;not null"`
	IsValid   bool       `db:"is_valid" gorm:"not null;default:true"`
	CreatedAt time.Time  `db:"created_at" gorm:"autoCreateTime"`
	RevokedAt *time.Time `db:"revoked_at"`
}
