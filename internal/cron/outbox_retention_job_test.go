package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
)

func TestOutboxRetentionJobDeletesPublishedRows(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	reg := prometheus.NewRegistry()
	job := newOutboxRetentionJob(t, repo, metrics.NewCronJobMetrics(reg))
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, repo.lastCutoff.Equal(now.Add(-outboxRetentionDays*24*time.Hour)))
	assert.Equal(t, outboxMinAttempts, repo.minAttempts)
	assert.Equal(t, 1, repo.called)
	assert.Equal(t, 7.0, affectedFor(t, reg, outboxRetentionJobName))
}

func TestOutboxRetentionJobHonorsConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      logger.Nop(),
		DB:          outboxRetentionTxRunner{},
		Repository:  repo,
		Retention:   7,
		MinAttempts: 3,
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, repo.lastCutoff.Equal(now.Add(-7*24*time.Hour)))
	assert.Equal(t, 3, repo.minAttempts)
}

func TestOutboxRetentionJobPurgesDeadLetters(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	dlq := &fakeDeadLetters{purged: 3}
	reg := prometheus.NewRegistry()
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      logger.Nop(),
		DB:          outboxRetentionTxRunner{},
		Repository:  repo,
		DeadLetters: dlq,
		Metrics:     metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, dlq.cutoff.Equal(repo.lastCutoff))
	assert.Equal(t, 10.0, affectedFor(t, reg, outboxRetentionJobName))

	dlq.err = errors.New("dlq locked")
	assert.ErrorContains(t, job.Run(context.Background()), "purge dlq")
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{err: errors.New("boom")}
	job := newOutboxRetentionJob(t, repo, nil)

	assert.Error(t, job.Run(context.Background()))
}

func newOutboxRetentionJob(t *testing.T, repo *fakeOutboxRetentionRepo, m *metrics.CronJobMetrics) *outboxRetentionJob {
	t.Helper()
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.Nop(),
		DB:         outboxRetentionTxRunner{},
		Repository: repo,
		Metrics:    m,
	})
	require.NoError(t, err)
	job, ok := jobIface.(*outboxRetentionJob)
	require.True(t, ok, "expected outboxRetentionJob, got %T", jobIface)
	return job
}

type fakeOutboxRetentionRepo struct {
	lastCutoff  time.Time
	minAttempts int
	called      int
	err         error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	f.minAttempts = minAttemptCount
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type fakeDeadLetters struct {
	cutoff time.Time
	purged int64
	err    error
}

func (f *fakeDeadLetters) PurgeBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.purged, f.err
}

type outboxRetentionTxRunner struct{}

func (outboxRetentionTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
