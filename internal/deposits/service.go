package deposits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/pkg/db"
	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/belldesk-backend/pkg/errors"
	"github.com/angelmondragon/belldesk-backend/pkg/lock"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox/payloads"
)

const (
	// DefaultHistoryLimit caps the release history listing. Configured
	// limits above it are clamped.
	DefaultHistoryLimit = 100

	// it-IT short date, no zero padding.
	releaseDateLayout = "2/1/2006"
	releaseTimeLayout = "15:04"
)

type depositRepository interface {
	List(ctx context.Context) ([]models.Deposit, error)
	Create(ctx context.Context, deposit *models.Deposit) error
	Delete(ctx context.Context, id uuid.UUID) error
	LockByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Deposit, error)
	ReleasedTx(ctx context.Context, tx *gorm.DB, depositID uuid.UUID) (bool, error)
	CreateArchiveTx(ctx context.Context, tx *gorm.DB, archived *models.ArchivedDeposit) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	History(ctx context.Context, limit int) ([]models.ArchivedDeposit, error)
}

// ReleaseLocker serializes releases of the same deposit.
type ReleaseLocker interface {
	Acquire(ctx context.Context, id string) (*lock.RedisLock, error)
}

// Service exposes deposit operations.
type Service interface {
	List(ctx context.Context) ([]DepositDTO, error)
	Create(ctx context.Context, input DepositInput) (*DepositDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID, input ReleaseInput) error
	History(ctx context.Context) ([]ArchivedDepositDTO, error)
}

// ServiceParams groups the deposit service dependencies.
type ServiceParams struct {
	Repo         depositRepository
	Tx           db.TxRunner
	Outbox       outbox.Emitter
	Locks        ReleaseLocker
	Metrics      *metrics.DepositReleaseMetrics
	Location     *time.Location
	HistoryLimit int
	Logger       *logger.Logger
	Clock        func() time.Time
}

type service struct {
	repo         depositRepository
	tx           db.TxRunner
	outbox       outbox.Emitter
	locks        ReleaseLocker
	metrics      *metrics.DepositReleaseMetrics
	loc          *time.Location
	historyLimit int
	logg         *logger.Logger
	clock        func() time.Time
}

// NewService builds the deposit service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("deposit repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if p.Locks == nil {
		return nil, fmt.Errorf("release locker required")
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	limit := p.HistoryLimit
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:         p.Repo,
		tx:           p.Tx,
		outbox:       p.Outbox,
		locks:        p.Locks,
		metrics:      p.Metrics,
		loc:          loc,
		historyLimit: limit,
		logg:         p.Logger,
		clock:        clock,
	}, nil
}

func (s *service) List(ctx context.Context) ([]DepositDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deposits")
	}
	out := make([]DepositDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input DepositInput) (*DepositDTO, error) {
	deposit := input.toModel(s.clock().UTC())
	if err := s.repo.Create(ctx, deposit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deposit")
	}
	dto := FromModel(*deposit)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete deposit")
	}
	return nil
}

func (s *service) History(ctx context.Context) ([]ArchivedDepositDTO, error) {
	rows, err := s.repo.History(ctx, s.historyLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list release history")
	}
	out := make([]ArchivedDepositDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromArchived(row))
	}
	return out, nil
}

// Release hands a deposit back to the guest: the active row moves to the
// archive with the release stamp, and a deposit.released event is queued.
func (s *service) Release(ctx context.Context, id uuid.UUID, input ReleaseInput) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(releaseOutcome(err), time.Since(started))
	}()

	porter := strings.TrimSpace(input.ReleasePorter)
	if porter == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "releasePorter is required").
			WithDetails(map[string]string{"releasePorter": "is required"})
	}

	held, err := s.locks.Acquire(ctx, id.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return pkgerrors.New(pkgerrors.CodeConflict, "release already in progress")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire release lock")
	}
	defer func() {
		if relErr := held.Release(context.WithoutCancel(ctx)); relErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(s.logg.WithDepositID(ctx, id.String()), map[string]any{"error": relErr.Error()}), "release lock not freed")
		}
	}()

	var archived models.ArchivedDeposit
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deposit, err := s.repo.LockByIDTx(ctx, tx, id)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deposit")
			}
			released, checkErr := s.repo.ReleasedTx(ctx, tx, id)
			if checkErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, checkErr, "check deposit archive")
			}
			if released {
				return pkgerrors.New(pkgerrors.CodeConflict, "deposit already released")
			}
			return pkgerrors.New(pkgerrors.CodeNotFound, "deposit not found")
		}

		now := s.clock()
		local := now.In(s.loc)
		archived = archiveFromDeposit(*deposit, local.Format(releaseDateLayout), local.Format(releaseTimeLayout), porter, now.UTC())
		if err := s.repo.CreateArchiveTx(ctx, tx, &archived); err != nil {
			if db.IsUniqueViolation(err, models.DepositArchiveSourceConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "deposit already released")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert released deposit")
		}
		if err := s.repo.DeleteTx(ctx, tx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete active deposit")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDepositReleased,
			AggregateType: enums.AggregateDeposit,
			AggregateID:   deposit.ID,
			Actor:         &outbox.ActorRef{Name: porter},
			Data: payloads.DepositReleasedEvent{
				DepositID:     deposit.ID,
				ArchiveID:     archived.ID,
				Tag:           deposit.Tag,
				Guest:         deposit.Guest,
				Pcs:           deposit.Pcs,
				Location:      deposit.Location,
				ReleaseDate:   archived.ReleaseDate,
				ReleaseTime:   archived.ReleaseTime,
				ReleasePorter: porter,
				DepositedAtMS: deposit.Timestamp,
				ReleasedAt:    archived.ReleasedAt,
			},
			OccurredAt: archived.ReleasedAt,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit deposit released event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithDepositID(ctx, id.String()), map[string]any{
			"archive_id":     archived.ID.String(),
			"release_porter": porter,
		})
		s.logg.Info(logCtx, "deposit released")
	}
	return nil
}

func releaseOutcome(err error) string {
	if err == nil {
		return metrics.ReleaseOutcomeReleased
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return metrics.ReleaseOutcomeError
	}
	switch typed.Code() {
	case pkgerrors.CodeConflict:
		return metrics.ReleaseOutcomeConflict
	case pkgerrors.CodeNotFound:
		return metrics.ReleaseOutcomeNotFound
	case pkgerrors.CodeValidation:
		return metrics.ReleaseOutcomeInvalid
	default:
		return metrics.ReleaseOutcomeError
	}
}
