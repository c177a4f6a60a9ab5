package model

import "time"

// ProofType classifies an uploaded proof photo. AFTER is the terminal type:
// only its upload flips the order status and triggers notifications.
type ProofType string

const (
	ProofTypeBefore  ProofType = "BEFORE"
	ProofTypeAfter   ProofType = "AFTER"
	ProofTypeReceipt ProofType = "RECEIPT"
	ProofTypeDamage  ProofType = "DAMAGE"
	ProofTypeOther   ProofType = "OTHER"
)

// Valid reports whether t is one of the known proof types.
func (t ProofType) Valid() bool {
	switch t {
	case ProofTypeBefore, ProofTypeAfter, ProofTypeReceipt, ProofTypeDamage, ProofTypeOther:
		return true
	}
	return false
}

// Rank orders proof types for public display: BEFORE, AFTER, RECEIPT,
// DAMAGE, OTHER. Unknown types sort last.
func (t ProofType) Rank() int {
	switch t {
	case ProofTypeBefore:
		return 0
	case ProofTypeAfter:
		return 1
	case ProofTypeReceipt:
		return 2
	case ProofTypeDamage:
		return 3
	case ProofTypeOther:
		return 4
	}
	return 5
}

// Proof stores delivery-proof photo metadata. At most one proof per
// (order, type) pair.
type Proof struct {
	ID         uint      `db:"id" gorm:"primaryKey"`
	OrderID    uint      `db:"order_id" gorm:"not null;index;uniqueIndex:uq_proofs_order_type"`
	ProofType  ProofType `db:"proof_type" gorm:"size:16;not null;uniqueIndex:uq_proofs_order_type"`
	FileKey    string    `db:"file_key" gorm:"size:500;not null"`
	FileSize   int64     `db:"file_size"`
	MimeType   string    `db:"mime_type" gorm:"size:50"`
	UploadedAt time.Time `db:"uploaded_at" gorm:"autoCreateTime"`
}
