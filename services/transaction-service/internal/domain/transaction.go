package domain

import "time"

type Status string

const (
	StatusIssued   Status = "issued"
	StatusReturned Status = "returned"
	// StatusFailed marks a loan voided by saga compensation. Failed loans
	// never count as active and never transition again.
	StatusFailed Status = "failed"
)

type Transaction struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	BookID     string `gorm:"index"`
	Status     Status `gorm:"index"`
	IssuedAt   time.Time
	ReturnedAt *time.Time
}
