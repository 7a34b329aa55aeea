package model

import "time"

// Review is a buyer review of a beat. Reviews feed the beat's running
// average rating; they are written through GORM while the catalog itself
// uses plain SQL.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BeatID    string    `gorm:"type:char(36);not null;index" json:"beatId"`
	AuthorID  string    `gorm:"type:varchar(64);not null" json:"authorId"`
	Stars     int       `gorm:"not null" json:"stars"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName sets the reviews table name.
func (Review) TableName() string {
	return "reviews"
}
