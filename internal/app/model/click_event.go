package model

import "time"

// ClickEvent records one resolution of a short link, persisted off the hot
// path by the JetStream consumer.
type ClickEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Code      string    `json:"code" gorm:"size:16;index;not null"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"size:512"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

const (
	ClickStreamName     = "SHORTLINK_CLICKS"
	ClickStreamSubject  = "shortlink.clicks"
	ClickConsumerName   = "click-logger"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
