package payloads

import (
	"time"

	"github.com/google/uuid"
)

// DepositReleasedEvent is emitted when a deposit is handed back and moved to the archive.
type DepositReleasedEvent struct {
	DepositID     uuid.UUID `json:"depositId"`
	ArchiveID     uuid.UUID `json:"archiveId"`
	Tag           string    `json:"tag"`
	Guest         string    `json:"guest"`
	Pcs           string    `json:"pcs"`
	Location      string    `json:"location"`
	ReleaseDate   string    `json:"releaseDate"`
	ReleaseTime   string    `json:"releaseTime"`
	ReleasePorter string    `json:"releasePorter"`
	DepositedAtMS int64     `json:"depositedAtMs"`
	ReleasedAt    time.Time `json:"releasedAt"`
}

// LuggageArchivedEvent is emitted when an active luggage task moves into the dedicated archive.
type LuggageArchivedEvent struct {
	TaskID       uuid.UUID `json:"taskId"`
	ArchiveID    uuid.UUID `json:"archiveId"`
	Guest        string    `json:"guest"`
	Room         string    `json:"room"`
	Status       string    `json:"status"`
	DeliveryDate string    `json:"deliveryDate"`
	Reason       string    `json:"reason"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

// Archive reasons carried by LuggageArchivedEvent.
const (
	ArchiveReasonManual = "manual"
	ArchiveReasonSweep  = "idle_done_sweep"
)
