package staff

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/internal/repo"
	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
)

// Repository handles staff directory persistence.
type Repository struct {
	base repo.Base
}

// NewRepository binds a GORM DB to staff operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// List returns the directory sorted by surname, then name.
func (r *Repository) List(ctx context.Context) ([]models.StaffUser, error) {
	var users []models.StaffUser
	if err := r.base.DB(ctx).
		Order("cognome ASC").
		Order("nome ASC").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create persists a new staff member.
func (r *Repository) Create(ctx context.Context, user *models.StaffUser) error {
	return r.base.DB(ctx).Create(user).Error
}

// Delete removes the staff member if present.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", id).Delete(&models.StaffUser{}).Error
}
