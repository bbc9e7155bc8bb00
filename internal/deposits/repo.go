package deposits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/internal/repo"
	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
)

// Repository handles deposit and deposit archive persistence.
type Repository struct {
	base repo.Base
}

// NewRepository binds a GORM DB to deposit operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// List returns active deposits, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Deposit, error) {
	var deposits []models.Deposit
	if err := r.base.DB(ctx).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&deposits).Error; err != nil {
		return nil, err
	}
	return deposits, nil
}

// Create persists a new deposit row.
func (r *Repository) Create(ctx context.Context, deposit *models.Deposit) error {
	return r.base.DB(ctx).Create(deposit).Error
}

// Delete removes the deposit if present.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", id).Delete(&models.Deposit{}).Error
}

// LockByIDTx loads the active deposit with a row lock inside tx.
func (r *Repository) LockByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := repo.ForUpdate(r.base.Bind(tx).DB(ctx)).
		Where("id = ?", id).
		First(&deposit).Error; err != nil {
		return nil, err
	}
	return &deposit, nil
}

// ReleasedTx reports whether the archive already holds the deposit.
func (r *Repository) ReleasedTx(ctx context.Context, tx *gorm.DB, depositID uuid.UUID) (bool, error) {
	var count int64
	if err := r.base.Bind(tx).DB(ctx).
		Model(&models.ArchivedDeposit{}).
		Where("source_deposit_id = ?", depositID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateArchiveTx inserts the released copy inside tx.
func (r *Repository) CreateArchiveTx(ctx context.Context, tx *gorm.DB, archived *models.ArchivedDeposit) error {
	return r.base.Bind(tx).DB(ctx).Create(archived).Error
}

// DeleteTx removes the active deposit inside tx.
func (r *Repository) DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.base.Bind(tx).DB(ctx).Where("id = ?", id).Delete(&models.Deposit{}).Error
}

// History returns the most recent released deposits by original deposit time.
func (r *Repository) History(ctx context.Context, limit int) ([]models.ArchivedDeposit, error) {
	var rows []models.ArchivedDeposit
	if err := r.base.DB(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
