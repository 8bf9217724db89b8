package models

import "gorm.io/gorm"

const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
)

// CoursePurchase is the transactional record of a single purchase attempt.
// PaymentID is the provider-issued checkout session id and the correlation
// key for webhook reconciliation; exactly one row exists per PaymentID.
type CoursePurchase struct {
	gorm.Model
	CourseID  uint    `gorm:"not null;index"`
	UserID    uint    `gorm:"not null;index"`
	Amount    float64 `gorm:"not null"`
	Status    string  `gorm:"type:varchar(20);default:'pending'"` // pending, completed
	PaymentID string  `gorm:"type:varchar(100);uniqueIndex"`

	Course Course `gorm:"foreignKey:CourseID"`
	User   User   `gorm:"foreignKey:UserID"`
}
