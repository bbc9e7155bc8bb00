package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	"github.com/angelmondragon/belldesk-backend/pkg/types"
)

// LuggageTask is a bag movement the desk is still working on.
type LuggageTask struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Barcode      string              `gorm:"column:barcode;type:text"`
	Guest        string              `gorm:"column:guest;type:text"`
	Room         string              `gorm:"column:room;type:text"`
	Pcs          types.Pieces        `gorm:"column:pcs;type:jsonb"`
	TaskType     string              `gorm:"column:task_type;type:text"`
	Source       string              `gorm:"column:source;type:text"`
	AssignedUser string              `gorm:"column:assigned_user;type:text"`
	TimeLabel    string              `gorm:"column:time_label;type:text"`
	DeliveryDate string              `gorm:"column:delivery_date;type:text"`
	Status       enums.LuggageStatus `gorm:"column:status;type:text;not null"`
	StartMS      *int64              `gorm:"column:start_ms"`
	Duration     string              `gorm:"column:duration_label;type:text"`
	CreatedAt    time.Time           `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;not null"`
}

func (LuggageTask) TableName() string { return "luggage_tasks" }

func (t *LuggageTask) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
