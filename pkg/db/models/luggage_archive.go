package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	"github.com/angelmondragon/belldesk-backend/pkg/types"
)

const LuggageArchiveSourceConstraint = "ux_luggage_archive_source_task_id"

// LuggageArchiveEntry is a completed luggage task kept in the dedicated archive.
type LuggageArchiveEntry struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SourceTaskID *uuid.UUID          `gorm:"column:source_task_id;type:uuid;uniqueIndex:ux_luggage_archive_source_task_id"`
	Barcode      string              `gorm:"column:barcode;type:text"`
	Guest        string              `gorm:"column:guest;type:text"`
	Room         string              `gorm:"column:room;type:text"`
	Pcs          types.Pieces        `gorm:"column:pcs;type:jsonb"`
	TaskType     string              `gorm:"column:task_type;type:text"`
	Source       string              `gorm:"column:source;type:text"`
	AssignedUser string              `gorm:"column:assigned_user;type:text"`
	TimeLabel    string              `gorm:"column:time_label;type:text"`
	DeliveryDate string              `gorm:"column:delivery_date;type:text;index:idx_luggage_archive_delivery_date"`
	Status       enums.LuggageStatus `gorm:"column:status;type:text"`
	StartMS      *int64              `gorm:"column:start_ms"`
	Duration     string              `gorm:"column:duration_label;type:text"`
	ArchivedAt   time.Time           `gorm:"column:archived_at;not null"`
}

func (LuggageArchiveEntry) TableName() string { return "luggage_archive" }

func (e *LuggageArchiveEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// ArchiveFromTask copies every task field into a fresh archive entry.
func ArchiveFromTask(task LuggageTask, archivedAt time.Time) LuggageArchiveEntry {
	sourceID := task.ID
	return LuggageArchiveEntry{
		SourceTaskID: &sourceID,
		Barcode:      task.Barcode,
		Guest:        task.Guest,
		Room:         task.Room,
		Pcs:          task.Pcs,
		TaskType:     task.TaskType,
		Source:       task.Source,
		AssignedUser: task.AssignedUser,
		TimeLabel:    task.TimeLabel,
		DeliveryDate: task.DeliveryDate,
		Status:       task.Status,
		StartMS:      task.StartMS,
		Duration:     task.Duration,
		ArchivedAt:   archivedAt,
	}
}
