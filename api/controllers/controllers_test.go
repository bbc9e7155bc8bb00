package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/belldesk-backend/internal/deposits"
	"github.com/angelmondragon/belldesk-backend/internal/luggage"
	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/belldesk-backend/pkg/errors"
	"github.com/angelmondragon/belldesk-backend/pkg/types"
)

type stubLuggageService struct {
	luggage.Service

	updatedID     uuid.UUID
	updatedStatus enums.LuggageStatus
	updateErr     error
	deleted       []uuid.UUID
	archiveErr    error
	query         luggage.ArchiveQuery
}

func (s *stubLuggageService) UpdateStatus(_ context.Context, id uuid.UUID, status enums.LuggageStatus) (*luggage.TaskDTO, error) {
	s.updatedID = id
	s.updatedStatus = status
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &luggage.TaskDTO{ID: id, Status: status}, nil
}

func (s *stubLuggageService) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubLuggageService) ArchiveTask(_ context.Context, id uuid.UUID) (*luggage.ArchiveEntryDTO, error) {
	if s.archiveErr != nil {
		return nil, s.archiveErr
	}
	return &luggage.ArchiveEntryDTO{ID: uuid.New(), SourceTaskID: &id}, nil
}

func (s *stubLuggageService) Create(_ context.Context, input luggage.TaskInput) (*luggage.TaskDTO, error) {
	return &luggage.TaskDTO{ID: uuid.New(), Guest: input.Guest, Pcs: input.Pcs, Status: enums.LuggageStatusPending}, nil
}

func (s *stubLuggageService) QueryArchive(_ context.Context, q luggage.ArchiveQuery) ([]luggage.ArchiveEntryDTO, error) {
	s.query = q
	return []luggage.ArchiveEntryDTO{}, nil
}

type stubDepositService struct {
	deposits.Service

	releasedID uuid.UUID
	porter     string
	releaseErr error
	history    []deposits.ArchivedDepositDTO
}

func (s *stubDepositService) Release(_ context.Context, id uuid.UUID, input deposits.ReleaseInput) error {
	s.releasedID = id
	s.porter = input.ReleasePorter
	return s.releaseErr
}

func (s *stubDepositService) History(context.Context) ([]deposits.ArchivedDepositDTO, error) {
	return s.history, nil
}

func (s *stubDepositService) List(context.Context) ([]deposits.DepositDTO, error) {
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("connection refused"), "list deposits")
}

func serve(method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorBody {
	t.Helper()
	var body types.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.MessageBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestLuggageCreateReturns201(t *testing.T) {
	svc := &stubLuggageService{}
	rec := serve(http.MethodPost, "/api/luggage", "/api/luggage",
		`{"_id":"65f1","guest":"Rossi","pcs":"2+1"}`, LuggageCreate(svc, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Rossi", got["guest"])
	assert.Equal(t, "2+1", got["pcs"])
}

func TestLuggageUpdateStatus(t *testing.T) {
	svc := &stubLuggageService{}
	id := uuid.New()
	rec := serve(http.MethodPatch, "/api/luggage/{id}", "/api/luggage/"+id.String(),
		`{"status":"DONE"}`, LuggageUpdateStatus(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.updatedID)
	assert.Equal(t, enums.LuggageStatusDone, svc.updatedStatus)
}

func TestLuggageUpdateStatusBadID(t *testing.T) {
	rec := serve(http.MethodPatch, "/api/luggage/{id}", "/api/luggage/nope",
		`{"status":"DONE"}`, LuggageUpdateStatus(&stubLuggageService{}, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code)
}

func TestLuggageUpdateStatusRejectsExtraFields(t *testing.T) {
	rec := serve(http.MethodPatch, "/api/luggage/{id}", "/api/luggage/"+uuid.NewString(),
		`{"status":"DONE","guest":"x"}`, LuggageUpdateStatus(&stubLuggageService{}, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLuggageUpdateStatusNotFound(t *testing.T) {
	svc := &stubLuggageService{updateErr: pkgerrors.New(pkgerrors.CodeNotFound, "luggage task not found")}
	rec := serve(http.MethodPatch, "/api/luggage/{id}", "/api/luggage/"+uuid.NewString(),
		`{"status":"DONE"}`, LuggageUpdateStatus(svc, nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "luggage task not found", decodeError(t, rec).Error)
}

func TestLuggageDeleteMalformedIDStillSucceeds(t *testing.T) {
	svc := &stubLuggageService{}
	rec := serve(http.MethodDelete, "/api/luggage/{id}", "/api/luggage/not-a-uuid", "", LuggageDelete(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Eliminato", decodeMessage(t, rec))
	assert.Empty(t, svc.deleted)
}

func TestLuggageArchiveConflict(t *testing.T) {
	svc := &stubLuggageService{archiveErr: pkgerrors.New(pkgerrors.CodeConflict, "luggage task already archived")}
	rec := serve(http.MethodPost, "/api/luggage/{id}/archive", "/api/luggage/"+uuid.NewString()+"/archive", "", LuggageArchive(svc, nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestArchiveQueryPassesFilters(t *testing.T) {
	svc := &stubLuggageService{}
	rec := serve(http.MethodGet, "/api/archivio-dedicato", "/api/archivio-dedicato?date=2026-03-01&filter=%20Ross", "", ArchiveQuery(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, luggage.ArchiveQuery{Date: "2026-03-01", Filter: "Ross"}, svc.query)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDepositRelease(t *testing.T) {
	svc := &stubDepositService{}
	id := uuid.New()
	rec := serve(http.MethodPost, "/api/deposit/release/{id}", "/api/deposit/release/"+id.String(),
		`{"releasePorter":"Luigi"}`, DepositRelease(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Riconsegnato", decodeMessage(t, rec))
	assert.Equal(t, id, svc.releasedID)
	assert.Equal(t, "Luigi", svc.porter)
}

func TestDepositReleaseMissingPorter(t *testing.T) {
	svc := &stubDepositService{}
	rec := serve(http.MethodPost, "/api/deposit/release/{id}", "/api/deposit/release/"+uuid.NewString(),
		`{}`, DepositRelease(svc, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, svc.releasedID)
}

func TestDepositReleaseConflict(t *testing.T) {
	svc := &stubDepositService{releaseErr: pkgerrors.New(pkgerrors.CodeConflict, "deposit already released")}
	rec := serve(http.MethodPost, "/api/deposit/release/{id}", "/api/deposit/release/"+uuid.NewString(),
		`{"releasePorter":"Luigi"}`, DepositRelease(svc, nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "deposit already released", decodeError(t, rec).Error)
}

func TestDepositListDependencyError(t *testing.T) {
	rec := serve(http.MethodGet, "/api/deposit", "/api/deposit", "", DepositList(&stubDepositService{}, nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeDependency), body.Code)
	assert.NotContains(t, body.Error, "connection refused")
}

func TestDepositHistoryBareArray(t *testing.T) {
	svc := &stubDepositService{history: []deposits.ArchivedDepositDTO{{Tag: "A1", Timestamp: 9}}}
	rec := serve(http.MethodGet, "/api/deposit/history", "/api/deposit/history", "", DepositHistory(svc, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []deposits.ArchivedDepositDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].Timestamp)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	rec := serve(http.MethodGet, "/health/ready", "/health/ready", "",
		HealthReady(cfg, nil, map[string]Pinger{"db": ok, "redis": ok}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get(envHeader))

	rec = serve(http.MethodGet, "/health/ready", "/health/ready", "",
		HealthReady(cfg, nil, map[string]Pinger{"db": ok, "redis": down}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	rec := serve(http.MethodGet, "/health/live", "/health/live", "", HealthLive(cfg))
	assert.Equal(t, http.StatusOK, rec.Code)
}
