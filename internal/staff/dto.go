package staff

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
)

// StaffInput is the create body. Older desk clients send the role as "ruolo";
// it is accepted on input only and stored as role.
type StaffInput struct {
	Nome    string  `json:"nome"`
	Cognome string  `json:"cognome"`
	Codice  string  `json:"codice"`
	Role    *string `json:"role"`
	Ruolo   *string `json:"ruolo"`
}

// StaffDTO is the API view of a staff member.
type StaffDTO struct {
	ID        uuid.UUID `json:"id"`
	Nome      string    `json:"nome"`
	Cognome   string    `json:"cognome"`
	Codice    string    `json:"codice"`
	Role      *string   `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CanonicalRole picks role over the legacy ruolo alias. Blank values count as absent.
func (in StaffInput) CanonicalRole() *string {
	for _, candidate := range []*string{in.Role, in.Ruolo} {
		if candidate == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*candidate); trimmed != "" {
			return &trimmed
		}
	}
	return nil
}

func (in StaffInput) toModel(now time.Time) *models.StaffUser {
	return &models.StaffUser{
		Nome:      in.Nome,
		Cognome:   in.Cognome,
		Codice:    in.Codice,
		Role:      in.CanonicalRole(),
		CreatedAt: now,
	}
}

// FromModel maps a stored staff member to its API view.
func FromModel(m models.StaffUser) StaffDTO {
	return StaffDTO{
		ID:        m.ID,
		Nome:      m.Nome,
		Cognome:   m.Cognome,
		Codice:    m.Codice,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}
