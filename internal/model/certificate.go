package model

import "time"

// swagger:model Certificate
type Certificate struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AttemptID     uint      `gorm:"not null;uniqueIndex" json:"attemptId"`
	CertificateID string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"certificateId"`
	ObjectKey     string    `gorm:"size:255;not null" json:"objectKey"`
	URL           string    `gorm:"size:512" json:"url"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (Certificate) TableName() string {
	return "certificates"
}
