package luggage

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	"github.com/angelmondragon/belldesk-backend/pkg/types"
)

// TaskInput carries the caller-supplied fields of a luggage task. Any id in the
// request body is ignored.
type TaskInput struct {
	Barcode      string              `json:"barcode"`
	Guest        string              `json:"guest"`
	Room         string              `json:"room"`
	Pcs          types.Pieces        `json:"pcs"`
	Type         string              `json:"type"`
	Source       string              `json:"source"`
	User         string              `json:"user"`
	Time         string              `json:"time"`
	DeliveryDate string              `json:"deliveryDate"`
	Status       enums.LuggageStatus `json:"status"`
	Start        *int64              `json:"start"`
	Durata       string              `json:"durata"`
}

// StatusInput is the PATCH body.
type StatusInput struct {
	Status enums.LuggageStatus `json:"status" validate:"required"`
}

// ArchiveQuery filters the dedicated archive. Empty fields match everything.
type ArchiveQuery struct {
	Date   string
	Filter string
}

// TaskDTO is the API view of an active luggage task.
type TaskDTO struct {
	ID           uuid.UUID           `json:"id"`
	Barcode      string              `json:"barcode"`
	Guest        string              `json:"guest"`
	Room         string              `json:"room"`
	Pcs          types.Pieces        `json:"pcs"`
	Type         string              `json:"type"`
	Source       string              `json:"source"`
	User         string              `json:"user"`
	Time         string              `json:"time"`
	DeliveryDate string              `json:"deliveryDate"`
	Status       enums.LuggageStatus `json:"status"`
	Start        *int64              `json:"start"`
	Durata       string              `json:"durata"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// ArchiveEntryDTO is the API view of an archivio-dedicato record.
type ArchiveEntryDTO struct {
	ID           uuid.UUID           `json:"id"`
	SourceTaskID *uuid.UUID          `json:"sourceTaskId,omitempty"`
	Barcode      string              `json:"barcode"`
	Guest        string              `json:"guest"`
	Room         string              `json:"room"`
	Pcs          types.Pieces        `json:"pcs"`
	Type         string              `json:"type"`
	Source       string              `json:"source"`
	User         string              `json:"user"`
	Time         string              `json:"time"`
	DeliveryDate string              `json:"deliveryDate"`
	Status       enums.LuggageStatus `json:"status"`
	Start        *int64              `json:"start"`
	Durata       string              `json:"durata"`
	ArchivedAt   time.Time           `json:"archivedAt"`
}

func (in TaskInput) toTask() *models.LuggageTask {
	status := in.Status
	if status == "" {
		status = enums.LuggageStatusPending
	}
	return &models.LuggageTask{
		Barcode:      in.Barcode,
		Guest:        in.Guest,
		Room:         in.Room,
		Pcs:          in.Pcs,
		TaskType:     in.Type,
		Source:       in.Source,
		AssignedUser: in.User,
		TimeLabel:    in.Time,
		DeliveryDate: in.DeliveryDate,
		Status:       status,
		StartMS:      in.Start,
		Duration:     in.Durata,
	}
}

func (in TaskInput) toArchiveEntry(archivedAt time.Time) *models.LuggageArchiveEntry {
	task := in.toTask()
	entry := models.ArchiveFromTask(*task, archivedAt)
	entry.SourceTaskID = nil
	return &entry
}

// FromTask maps a stored task to its API view.
func FromTask(m models.LuggageTask) TaskDTO {
	return TaskDTO{
		ID:           m.ID,
		Barcode:      m.Barcode,
		Guest:        m.Guest,
		Room:         m.Room,
		Pcs:          m.Pcs,
		Type:         m.TaskType,
		Source:       m.Source,
		User:         m.AssignedUser,
		Time:         m.TimeLabel,
		DeliveryDate: m.DeliveryDate,
		Status:       enums.NormalizeLuggageStatus(string(m.Status)),
		Start:        m.StartMS,
		Durata:       m.Duration,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromArchiveEntry maps a stored archive entry to its API view.
func FromArchiveEntry(m models.LuggageArchiveEntry) ArchiveEntryDTO {
	return ArchiveEntryDTO{
		ID:           m.ID,
		SourceTaskID: m.SourceTaskID,
		Barcode:      m.Barcode,
		Guest:        m.Guest,
		Room:         m.Room,
		Pcs:          m.Pcs,
		Type:         m.TaskType,
		Source:       m.Source,
		User:         m.AssignedUser,
		Time:         m.TimeLabel,
		DeliveryDate: m.DeliveryDate,
		Status:       enums.NormalizeLuggageStatus(string(m.Status)),
		Start:        m.StartMS,
		Durata:       m.Duration,
		ArchivedAt:   m.ArchivedAt,
	}
}
