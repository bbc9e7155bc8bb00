package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/db/models"
	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox/registry"
)

func depositEvent(t *testing.T, attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventDepositReleased,
		AggregateType: enums.AggregateDeposit,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, uuid.NewString()),
		AttemptCount:  attempts,
	}
}

func deskResolved() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "desk-events",
			AggregateType: enums.AggregateDeposit,
		},
		Envelope: outbox.PayloadEnvelope{EventID: uuid.NewString(), OccurredAt: time.Now()},
		Payload:  &payloads.DepositReleasedEvent{},
	}
}

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{depositEvent(t, 0), depositEvent(t, 0)}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	h := newTestService(t, repo, pub, &fakeRegistry{resolved: deskResolved()}, nil)

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	assert.Equal(t, 1.0, counterValue(t, h.reg, "belldesk_outbox_published_total"))
	assert.Equal(t, 1.0, counterValue(t, h.reg, "belldesk_outbox_publish_failures_total"))
}

func TestPublishedMessageCarriesEventAttributes(t *testing.T) {
	event := depositEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	h := newTestService(t, repo, pub, &fakeRegistry{resolved: deskResolved()}, nil)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	msg := pub.sent[0]
	assert.Equal(t, []byte(event.Payload), msg.Data)
	assert.Equal(t, "deposit.released", msg.Attributes["event_type"])
	assert.Equal(t, "deposit", msg.Attributes["aggregate_type"])
	assert.Equal(t, event.AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.Equal(t, event.ID.String(), msg.Attributes["event_id"])
}

func TestServiceProcessBatchParksUndecodableRow(t *testing.T) {
	event := depositEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	h := newTestService(t, repo, &fakePublisher{}, reg, nil)

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, h.dlq.entries, 1)
	entry := h.dlq.entries[0]
	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, event.Payload, entry.Payload)
	assert.Equal(t, enums.OutboxDLQReasonUndecodable, entry.ErrorReason)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	assert.True(t, entry.FailedAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1.0, counterValue(t, h.reg, "belldesk_outbox_dead_lettered_total"))
}

func TestServiceProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	event := depositEvent(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	h := newTestService(t, repo, pub, &fakeRegistry{resolved: deskResolved()}, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, h.dlq.entries[0].ErrorReason)
}

func TestServiceNilPublishResultIsNonRetryable(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{depositEvent(t, 0)}}
	h := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{resolved: deskResolved()}, nil)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
	assert.Empty(t, repo.published)
}

func TestServiceBookkeepingFailureAbortsBatch(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{depositEvent(t, 0)}, publishErr: errors.New("db gone")}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	h := newTestService(t, repo, pub, &fakeRegistry{resolved: deskResolved()}, nil)

	busy, err := h.svc.processBatch(context.Background())
	assert.True(t, busy)
	assert.ErrorContains(t, err, "mark published")
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{
		Logger:        logger.Nop(),
		DB:            &fakeDB{},
		PubSub:        &fakePubSubClient{},
		Publisher:     newDeskPublisher(nil),
		Repository:    &fakeRepo{},
		Registry:      &fakeRegistry{},
		DLQRepository: &fakeDLQRepo{},
	})
	assert.ErrorContains(t, err, "desk publisher")
}

func TestReportParkedLogsCounts(t *testing.T) {
	var buf bytes.Buffer
	h := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil)
	h.svc.logg = logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: &buf})
	h.dlq.counts = map[enums.OutboxDLQErrorReason]int64{enums.OutboxDLQReasonMaxAttempts: 4}

	h.svc.reportParked(context.Background())
	assert.Contains(t, buf.String(), `"dlq_max_attempts":4`)

	buf.Reset()
	h.dlq.counts = nil
	h.svc.reportParked(context.Background())
	assert.Empty(t, buf.String())
}

func TestNextBackoffIsCapped(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(500*time.Millisecond, 500*time.Millisecond, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, 500*time.Millisecond, maxBackoff))
	assert.Equal(t, time.Second, nextBackoff(0, 500*time.Millisecond, maxBackoff))
}

type testHarness struct {
	svc *Service
	dlq *fakeDLQRepo
	reg *prometheus.Registry
}

func newTestService(t *testing.T, repo outboxRepository, pub *fakePublisher, resolver registryResolver, outboxCfgOverride *config.OutboxConfig) testHarness {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	reg := prometheus.NewRegistry()
	dlq := &fakeDLQRepo{}
	svc, err := NewService(ServiceParams{
		Outbox:        outboxCfg,
		Logger:        logg,
		DB:            &fakeDB{},
		PubSub:        &fakePubSubClient{},
		Publisher:     pub,
		Repository:    repo,
		Registry:      resolver,
		DLQRepository: dlq,
		Metrics:       metrics.NewOutboxMetrics(reg),
		Clock:         func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)) },
	})
	require.NoError(t, err)
	return testHarness{svc: svc, dlq: dlq, reg: reg}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			total += counter(m)
		}
	}
	return total
}

func counter(m *dto.Metric) float64 {
	if m.GetCounter() == nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func mustEnvelopePayload(tb testing.TB, eventID string) json.RawMessage {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events     []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	terminal   []uuid.UUID
	publishErr error
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error {
	return nil
}

type fakePublisher struct {
	results []publishResult
	sent    []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.resolved == nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Descriptor.AggregateType = event.AggregateType
	resolved.Envelope.EventID = event.ID.String()
	resolved.Envelope.OccurredAt = time.Now()
	return &resolved, f.err
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
	counts  map[enums.OutboxDLQErrorReason]int64
}

func (f *fakeDLQRepo) CountByReason(context.Context) (map[enums.OutboxDLQErrorReason]int64, error) {
	return f.counts, nil
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
