package luggage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/internal/repo"
	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
	"github.com/angelmondragon/belldesk-backend/pkg/enums"
)

// Repository handles luggage task and archive persistence.
type Repository struct {
	base repo.Base
}

// NewRepository binds a GORM DB to luggage operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// List returns every active task in insertion order.
func (r *Repository) List(ctx context.Context) ([]models.LuggageTask, error) {
	var tasks []models.LuggageTask
	if err := r.base.DB(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create persists a new task row.
func (r *Repository) Create(ctx context.Context, task *models.LuggageTask) error {
	return r.base.DB(ctx).Create(task).Error
}

// FindByID loads a task by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LuggageTask, error) {
	var task models.LuggageTask
	if err := r.base.DB(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus writes only the status column and reports how many rows matched.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LuggageStatus, now time.Time) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.LuggageTask{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":     status,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// Delete removes the task if present.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", id).Delete(&models.LuggageTask{}).Error
}

// LockByIDTx loads the task with a row lock inside tx.
func (r *Repository) LockByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.LuggageTask, error) {
	var task models.LuggageTask
	if err := repo.ForUpdate(r.base.Bind(tx).DB(ctx)).
		Where("id = ?", id).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTx removes the task inside tx.
func (r *Repository) DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.base.Bind(tx).DB(ctx).Where("id = ?", id).Delete(&models.LuggageTask{}).Error
}

// ArchivedFromTaskTx reports whether the archive already holds a copy of the task.
func (r *Repository) ArchivedFromTaskTx(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (bool, error) {
	var count int64
	if err := r.base.Bind(tx).DB(ctx).
		Model(&models.LuggageArchiveEntry{}).
		Where("source_task_id = ?", taskID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateArchiveEntryTx inserts into the archive. A nil tx uses the root connection.
func (r *Repository) CreateArchiveEntryTx(ctx context.Context, tx *gorm.DB, entry *models.LuggageArchiveEntry) error {
	return r.base.Bind(tx).DB(ctx).Create(entry).Error
}

// QueryArchive filters archive entries by exact delivery date and a case-insensitive
// substring of guest or room.
func (r *Repository) QueryArchive(ctx context.Context, q ArchiveQuery) ([]models.LuggageArchiveEntry, error) {
	query := r.base.DB(ctx).Model(&models.LuggageArchiveEntry{})
	if date := strings.TrimSpace(q.Date); date != "" {
		query = query.Where("delivery_date = ?", date)
	}
	if filter := strings.TrimSpace(q.Filter); filter != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter)) + "%"
		query = query.Where(`(LOWER(guest) LIKE ? ESCAPE '\' OR LOWER(room) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var entries []models.LuggageArchiveEntry
	if err := query.
		Order("archived_at ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListDoneBefore returns ids of DONE tasks untouched since cutoff.
func (r *Repository) ListDoneBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.base.DB(ctx).
		Model(&models.LuggageTask{}).
		Where("status = ? AND updated_at < ?", enums.LuggageStatusDone, cutoff).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
