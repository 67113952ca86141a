package domain

import "time"

type Book struct {
	ID              string `gorm:"primaryKey"`
	Title           string `gorm:"index"`
	Author          string `gorm:"index"`
	AvailableCopies int32  `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b *Book) IsAvailable() bool { return b.AvailableCopies > 0 }
