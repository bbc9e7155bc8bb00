package staff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/belldesk-backend/pkg/errors"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
)

type staffRepository interface {
	List(ctx context.Context) ([]models.StaffUser, error)
	Create(ctx context.Context, user *models.StaffUser) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes the staff directory.
type Service interface {
	List(ctx context.Context) ([]StaffDTO, error)
	Create(ctx context.Context, input StaffInput) (*StaffDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups the staff service dependencies.
type ServiceParams struct {
	Repo   staffRepository
	Logger *logger.Logger
	Clock  func() time.Time
}

type service struct {
	repo  staffRepository
	logg  *logger.Logger
	clock func() time.Time
}

// NewService builds a staff service. A nil clock means time.Now.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: p.Repo, logg: p.Logger, clock: clock}, nil
}

func (s *service) List(ctx context.Context) ([]StaffDTO, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	out := make([]StaffDTO, 0, len(users))
	for _, u := range users {
		out = append(out, FromModel(u))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input StaffInput) (*StaffDTO, error) {
	user := input.toModel(s.clock().UTC())
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff member")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "staff_id", user.ID.String()), "staff member added")
	}
	dto := FromModel(*user)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete staff member")
	}
	return nil
}
