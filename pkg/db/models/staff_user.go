package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffUser is a desk employee. Role is optional.
type StaffUser struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Nome      string    `gorm:"column:nome;type:text"`
	Cognome   string    `gorm:"column:cognome;type:text"`
	Codice    string    `gorm:"column:codice;type:text"`
	Role      *string   `gorm:"column:role;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (StaffUser) TableName() string { return "staff_users" }

func (s *StaffUser) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
