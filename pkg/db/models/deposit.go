package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deposit is an item held at the desk on behalf of a guest.
type Deposit struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Tag           string    `gorm:"column:tag;type:text"`
	Guest         string    `gorm:"column:guest;type:text"`
	Pcs           string    `gorm:"column:pcs;type:text"`
	Location      string    `gorm:"column:location;type:text"`
	Notes         string    `gorm:"column:notes;type:text"`
	StaffUser     string    `gorm:"column:staff_user;type:text"`
	DepositDate   string    `gorm:"column:deposit_date;type:text"`
	DepositTime   string    `gorm:"column:deposit_time;type:text"`
	Timestamp     int64     `gorm:"column:timestamp;not null"`
	ReleaseDate   string    `gorm:"column:release_date;type:text"`
	ReleaseTime   string    `gorm:"column:release_time;type:text"`
	ReleasePorter string    `gorm:"column:release_porter;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (Deposit) TableName() string { return "deposits" }

func (d *Deposit) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
