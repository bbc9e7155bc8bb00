package luggage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/pkg/db"
	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/belldesk-backend/pkg/errors"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox/payloads"
)

const sweepBatchSize = 200

type taskRepository interface {
	List(ctx context.Context) ([]models.LuggageTask, error)
	Create(ctx context.Context, task *models.LuggageTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LuggageTask, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LuggageStatus, now time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	LockByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.LuggageTask, error)
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ArchivedFromTaskTx(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (bool, error)
	CreateArchiveEntryTx(ctx context.Context, tx *gorm.DB, entry *models.LuggageArchiveEntry) error
	QueryArchive(ctx context.Context, q ArchiveQuery) ([]models.LuggageArchiveEntry, error)
	ListDoneBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// Service exposes luggage task and archive operations.
type Service interface {
	List(ctx context.Context) ([]TaskDTO, error)
	Create(ctx context.Context, input TaskInput) (*TaskDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LuggageStatus) (*TaskDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	QueryArchive(ctx context.Context, q ArchiveQuery) ([]ArchiveEntryDTO, error)
	CreateArchiveEntry(ctx context.Context, input TaskInput) (*ArchiveEntryDTO, error)
	ArchiveTask(ctx context.Context, id uuid.UUID) (*ArchiveEntryDTO, error)
	ArchiveIdleDone(ctx context.Context, cutoff time.Time) (int, error)
}

// ServiceParams groups the luggage service dependencies.
type ServiceParams struct {
	Repo   taskRepository
	Tx     db.TxRunner
	Outbox outbox.Emitter
	Logger *logger.Logger
	Clock  func() time.Time
}

type service struct {
	repo   taskRepository
	tx     db.TxRunner
	outbox outbox.Emitter
	logg   *logger.Logger
	clock  func() time.Time
}

// NewService builds the luggage service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("luggage repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:   p.Repo,
		tx:     p.Tx,
		outbox: p.Outbox,
		logg:   p.Logger,
		clock:  clock,
	}, nil
}

func (s *service) now() time.Time {
	return s.clock().UTC()
}

func (s *service) List(ctx context.Context) ([]TaskDTO, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list luggage tasks")
	}
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, FromTask(t))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input TaskInput) (*TaskDTO, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, invalidStatus(input.Status)
	}
	task := input.toTask()
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create luggage task")
	}
	dto := FromTask(*task)
	return &dto, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LuggageStatus) (*TaskDTO, error) {
	if !status.IsValid() {
		return nil, invalidStatus(status)
	}
	affected, err := s.repo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update luggage status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "luggage task not found")
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "luggage task not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load luggage task")
	}
	dto := FromTask(*task)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete luggage task")
	}
	return nil
}

func (s *service) QueryArchive(ctx context.Context, q ArchiveQuery) ([]ArchiveEntryDTO, error) {
	entries, err := s.repo.QueryArchive(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query luggage archive")
	}
	out := make([]ArchiveEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromArchiveEntry(e))
	}
	return out, nil
}

func (s *service) CreateArchiveEntry(ctx context.Context, input TaskInput) (*ArchiveEntryDTO, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, invalidStatus(input.Status)
	}
	entry := input.toArchiveEntry(s.now())
	if err := s.repo.CreateArchiveEntryTx(ctx, nil, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create archive entry")
	}
	dto := FromArchiveEntry(*entry)
	return &dto, nil
}

func (s *service) ArchiveTask(ctx context.Context, id uuid.UUID) (*ArchiveEntryDTO, error) {
	return s.archiveTask(ctx, id, payloads.ArchiveReasonManual)
}

// ArchiveIdleDone moves every DONE task last touched before cutoff into the
// archive. Failures on individual tasks do not stop the sweep.
func (s *service) ArchiveIdleDone(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.repo.ListDoneBefore(ctx, cutoff.UTC(), sweepBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list idle done tasks")
	}

	var (
		archived int
		errs     error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return archived, multierr.Append(errs, err)
		}
		if _, err := s.archiveTask(ctx, id, payloads.ArchiveReasonSweep); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("archive task %s: %w", id, err))
			continue
		}
		archived++
	}
	return archived, errs
}

func (s *service) archiveTask(ctx context.Context, id uuid.UUID, reason string) (*ArchiveEntryDTO, error) {
	var entry models.LuggageArchiveEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		task, err := s.repo.LockByIDTx(ctx, tx, id)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load luggage task")
			}
			archived, existsErr := s.repo.ArchivedFromTaskTx(ctx, tx, id)
			if existsErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, existsErr, "check luggage archive")
			}
			if archived {
				return pkgerrors.New(pkgerrors.CodeConflict, "luggage task already archived")
			}
			return pkgerrors.New(pkgerrors.CodeNotFound, "luggage task not found")
		}

		archivedAt := s.now()
		entry = models.ArchiveFromTask(*task, archivedAt)
		if err := s.repo.CreateArchiveEntryTx(ctx, tx, &entry); err != nil {
			if db.IsUniqueViolation(err, models.LuggageArchiveSourceConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "luggage task already archived")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert archive entry")
		}
		if err := s.repo.DeleteTx(ctx, tx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete luggage task")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLuggageArchived,
			AggregateType: enums.AggregateLuggageTask,
			AggregateID:   task.ID,
			Data: payloads.LuggageArchivedEvent{
				TaskID:       task.ID,
				ArchiveID:    entry.ID,
				Guest:        task.Guest,
				Room:         task.Room,
				Status:       string(enums.NormalizeLuggageStatus(string(task.Status))),
				DeliveryDate: task.DeliveryDate,
				Reason:       reason,
				ArchivedAt:   archivedAt,
			},
			OccurredAt: archivedAt,
		}
		if task.AssignedUser != "" {
			event.Actor = &outbox.ActorRef{Name: task.AssignedUser}
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit luggage archived event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithTaskID(ctx, id.String()), map[string]any{
			"archive_id": entry.ID.String(),
			"reason":     reason,
		})
		s.logg.Info(logCtx, "luggage task archived")
	}

	dto := FromArchiveEntry(entry)
	return &dto, nil
}

func invalidStatus(status enums.LuggageStatus) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid luggage status").
		WithDetails(map[string]any{"status": string(status)})
}
