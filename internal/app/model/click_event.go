package model

import "time"

// ClickEvent is the audit record published to JetStream for every counted
// visit. The store's click counter stays authoritative; this stream only
// feeds external analytics.
type ClickEvent struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
