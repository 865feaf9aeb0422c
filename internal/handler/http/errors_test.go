package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlanChernakoff/Photogame/internal/service"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		err        error
		wantStatus int
		wantKind   service.Kind
		wantMsg    string
	}{
		{service.ErrNameRequired, http.StatusBadRequest, service.KindValidation, service.ErrNameRequired.Message},
		{service.ErrQuotaExceeded, http.StatusBadRequest, service.KindQuotaExceeded, "max 2 photos per user"},
		{service.ErrUserExists, http.StatusConflict, service.KindConflict, service.ErrUserExists.Message},
		{service.ErrPhotoNotFound, http.StatusNotFound, service.KindNotFound, service.ErrPhotoNotFound.Message},
		{service.ErrGameNotRunning, http.StatusForbidden, service.KindForbidden, "game not running"},
		{service.ErrFileMissing, http.StatusGone, service.KindGone, "file missing"},
		{service.ErrInternalServer, http.StatusInternalServerError, service.KindStorage, service.ErrInternalServer.Message},
		{fmt.Errorf("wrapped: %w", service.ErrAdminOnly), http.StatusForbidden, service.KindForbidden, "wrapped: admin only"},
		{errors.New("sql: connection refused"), http.StatusInternalServerError, service.KindStorage, "An unexpected error occurred"},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleServiceError(c, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tc.wantKind), body["kind"])
			assert.Equal(t, tc.wantMsg, body["error"])
			assert.True(t, c.IsAborted())
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := parseID(raw)
		assert.ErrorIs(t, err, service.ErrInvalidID, raw)
	}
}
