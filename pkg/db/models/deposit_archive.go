package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DepositArchiveSourceConstraint = "ux_deposit_archive_source_deposit_id"

// ArchivedDeposit is the full copy of a deposit taken when it is handed back.
type ArchivedDeposit struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SourceDepositID uuid.UUID `gorm:"column:source_deposit_id;type:uuid;not null;uniqueIndex:ux_deposit_archive_source_deposit_id"`
	Tag             string    `gorm:"column:tag;type:text"`
	Guest           string    `gorm:"column:guest;type:text"`
	Pcs             string    `gorm:"column:pcs;type:text"`
	Location        string    `gorm:"column:location;type:text"`
	Notes           string    `gorm:"column:notes;type:text"`
	StaffUser       string    `gorm:"column:staff_user;type:text"`
	DepositDate     string    `gorm:"column:deposit_date;type:text"`
	DepositTime     string    `gorm:"column:deposit_time;type:text"`
	Timestamp       int64     `gorm:"column:timestamp;not null;index:idx_deposit_archive_timestamp"`
	ReleaseDate     string    `gorm:"column:release_date;type:text;not null"`
	ReleaseTime     string    `gorm:"column:release_time;type:text;not null"`
	ReleasePorter   string    `gorm:"column:release_porter;type:text;not null"`
	ReleasedAt      time.Time `gorm:"column:released_at;not null"`
}

func (ArchivedDeposit) TableName() string { return "deposit_archive" }

func (a *ArchivedDeposit) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
