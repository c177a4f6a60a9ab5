package model

import "time"

// ShortCodeAlphabet excludes visually ambiguous characters (0/O/1/I) so
// codes survive being read aloud or typed from a printed label.
const ShortCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// ShortLink maps a short human-typeable code to an order's public proof
// page. One link per order; a forced token reissue updates TargetToken in
// place and never changes the code.
type ShortLink struct {
	ID            uint       `db:"id" gorm:"primaryKey"`
	Code          string     `db:"code" gorm:"size:16;uniqueIndex;not null"`
	OrderID       uint       `db:"order_id" gorm:"uniqueIndex;not null"`
	TargetPath    string     `db:"target_path" gorm:"size:64;not null;default:/p"`
	TargetToken   string     `db:"target_token" gorm:"size:64;not null"`
	ClickCount    int64      `db:"click_count" gorm:"not null;default:0"`
	LastClickedAt *time.Time `db:"last_clicked_at"`
	CreatedAt     time.Time  `db:"created_at" gorm:"autoCreateTime"`
}
