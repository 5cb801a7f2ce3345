package model

import "time"

// Link describes the short-link entity, the only record the service persists.
// The registry is its sole mutator; every other component treats a loaded
// link as a read-only snapshot.
type Link struct {
	Code        string     `json:"code" gorm:"primaryKey;size:10"`
	TargetURL   string     `json:"target_url" gorm:"column:target_url;type:text;not null"`
	Clicks      int64      `json:"clicks" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	LastClicked *time.Time `json:"last_clicked"`
}

// TableName pins the table name so it stays identical across drivers.
func (Link) TableName() string { return "links" }
