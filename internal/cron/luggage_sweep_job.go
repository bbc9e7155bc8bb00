package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
)

const (
	luggageSweepJobName     = "luggage-done-sweep"
	defaultLuggageIdleHours = 24
)

type luggageArchiver interface {
	ArchiveIdleDone(ctx context.Context, cutoff time.Time) (int, error)
}

// LuggageSweepJobParams configure the idle DONE task sweep.
type LuggageSweepJobParams struct {
	Logger    *logger.Logger
	Luggage   luggageArchiver
	Metrics   *metrics.CronJobMetrics
	IdleHours int
}

// NewLuggageSweepJob builds the job that archives DONE tasks nobody touched for IdleHours.
func NewLuggageSweepJob(params LuggageSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Luggage == nil {
		return nil, fmt.Errorf("luggage service required")
	}
	idle := params.IdleHours
	if idle <= 0 {
		idle = defaultLuggageIdleHours
	}
	return &luggageSweepJob{
		logg:      params.Logger,
		luggage:   params.Luggage,
		metrics:   params.Metrics,
		idleHours: idle,
		now:       time.Now,
	}, nil
}

type luggageSweepJob struct {
	logg      *logger.Logger
	luggage   luggageArchiver
	metrics   *metrics.CronJobMetrics
	idleHours int
	now       func() time.Time
}

func (j *luggageSweepJob) Name() string { return luggageSweepJobName }

func (j *luggageSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.idleHours) * time.Hour)
	archived, err := j.luggage.ArchiveIdleDone(ctx, cutoff)
	j.metrics.AddAffected(luggageSweepJobName, int64(archived))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"idle_hours":    j.idleHours,
		"rows_archived": archived,
	})
	if err != nil {
		return fmt.Errorf("luggage sweep archived %d: %w", archived, err)
	}
	j.logg.Info(logCtx, "luggage sweep complete")
	return nil
}
