package deposits

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
	"github.com/angelmondragon/belldesk-backend/pkg/types"
)

// DepositInput carries the caller-supplied deposit fields. The timestamp and
// release fields are always set by the server.
type DepositInput struct {
	Tag      string       `json:"tag"`
	Guest    string       `json:"guest"`
	Pcs      types.Pieces `json:"pcs"`
	Location string       `json:"location"`
	Notes    string       `json:"notes"`
	User     string       `json:"user"`
	Date     string       `json:"date"`
	Time     string       `json:"time"`
}

// ReleaseInput is the body of a release request.
type ReleaseInput struct {
	ReleasePorter string `json:"releasePorter" validate:"required"`
}

// DepositDTO is the API view of an active deposit.
type DepositDTO struct {
	ID            uuid.UUID `json:"id"`
	Tag           string    `json:"tag"`
	Guest         string    `json:"guest"`
	Pcs           string    `json:"pcs"`
	Location      string    `json:"location"`
	Notes         string    `json:"notes"`
	User          string    `json:"user"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Timestamp     int64     `json:"timestamp"`
	ReleaseDate   string    `json:"releaseDate,omitempty"`
	ReleaseTime   string    `json:"releaseTime,omitempty"`
	ReleasePorter string    `json:"releasePorter,omitempty"`
}

// ArchivedDepositDTO is the API view of a released deposit.
type ArchivedDepositDTO struct {
	ID              uuid.UUID `json:"id"`
	SourceDepositID uuid.UUID `json:"sourceDepositId"`
	Tag             string    `json:"tag"`
	Guest           string    `json:"guest"`
	Pcs             string    `json:"pcs"`
	Location        string    `json:"location"`
	Notes           string    `json:"notes"`
	User            string    `json:"user"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Timestamp       int64     `json:"timestamp"`
	ReleaseDate     string    `json:"releaseDate"`
	ReleaseTime     string    `json:"releaseTime"`
	ReleasePorter   string    `json:"releasePorter"`
	ReleasedAt      time.Time `json:"releasedAt"`
}

func (in DepositInput) toModel(now time.Time) *models.Deposit {
	return &models.Deposit{
		Tag:         in.Tag,
		Guest:       in.Guest,
		Pcs:         in.Pcs.String(),
		Location:    in.Location,
		Notes:       in.Notes,
		StaffUser:   in.User,
		DepositDate: in.Date,
		DepositTime: in.Time,
		Timestamp:   now.UnixMilli(),
		CreatedAt:   now,
	}
}

func archiveFromDeposit(d models.Deposit, releaseDate, releaseTime, porter string, releasedAt time.Time) models.ArchivedDeposit {
	return models.ArchivedDeposit{
		SourceDepositID: d.ID,
		Tag:             d.Tag,
		Guest:           d.Guest,
		Pcs:             d.Pcs,
		Location:        d.Location,
		Notes:           d.Notes,
		StaffUser:       d.StaffUser,
		DepositDate:     d.DepositDate,
		DepositTime:     d.DepositTime,
		Timestamp:       d.Timestamp,
		ReleaseDate:     releaseDate,
		ReleaseTime:     releaseTime,
		ReleasePorter:   porter,
		ReleasedAt:      releasedAt,
	}
}

// FromModel maps a stored deposit to its API view.
func FromModel(m models.Deposit) DepositDTO {
	return DepositDTO{
		ID:            m.ID,
		Tag:           m.Tag,
		Guest:         m.Guest,
		Pcs:           m.Pcs,
		Location:      m.Location,
		Notes:         m.Notes,
		User:          m.StaffUser,
		Date:          m.DepositDate,
		Time:          m.DepositTime,
		Timestamp:     m.Timestamp,
		ReleaseDate:   m.ReleaseDate,
		ReleaseTime:   m.ReleaseTime,
		ReleasePorter: m.ReleasePorter,
	}
}

// FromArchived maps a stored archive row to its API view.
func FromArchived(m models.ArchivedDeposit) ArchivedDepositDTO {
	return ArchivedDepositDTO{
		ID:              m.ID,
		SourceDepositID: m.SourceDepositID,
		Tag:             m.Tag,
		Guest:           m.Guest,
		Pcs:             m.Pcs,
		Location:        m.Location,
		Notes:           m.Notes,
		User:            m.StaffUser,
		Date:            m.DepositDate,
		Time:            m.DepositTime,
		Timestamp:       m.Timestamp,
		ReleaseDate:     m.ReleaseDate,
		ReleaseTime:     m.ReleaseTime,
		ReleasePorter:   m.ReleasePorter,
		ReleasedAt:      m.ReleasedAt,
	}
}
