package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/belldesk-backend/pkg/errors"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/types"
)

func TestWriteSuccessIsBareJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, []map[string]string{{"guest": "Rossi"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body []map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "Rossi", body[0]["guest"])
}

func TestWriteMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteMessage(w, "Eliminato")

	var body types.MessageBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Eliminato", body.Message)
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), logger.Nop(), w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body types.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeValidation), body.Code)
	assert.Equal(t, "bad input", body.Error)
	assert.NotNil(t, body.Details)
}

func TestWriteErrorConflictAndNotFound(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeConflict:   http.StatusConflict,
		pkgerrors.CodeNotFound:   http.StatusNotFound,
		pkgerrors.CodeDependency: http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, pkgerrors.New(code, "msg"))
		assert.Equal(t, status, w.Code, string(code))
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("dial tcp 10.0.0.3:5432: refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body types.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Code)
	assert.Equal(t, "internal server error", body.Error)
	assert.Nil(t, body.Details)
}
