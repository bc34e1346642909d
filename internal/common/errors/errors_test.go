package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func TestConstructors_UnwrapToSentinels(t *testing.T) {
	assert.ErrorIs(t, NewNotFoundError("job offer", 7), ErrNotFound)
	assert.ErrorIs(t, NewDuplicateConstraintError("dup", ""), ErrDuplicateConstraint)
	assert.ErrorIs(t, NewValidationError("bad"), ErrValidation)
	assert.ErrorIs(t, NewExtractionUnavailableError(stderrors.New("down")), ErrExtractionUnavailable)

	cause := stderrors.New("conn reset")
	assert.ErrorIs(t, NewQueryExecutionFailedError("insert", cause), cause)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		retryable bool
	}{
		{"wrapped not found", fmt.Errorf("%w: job offer 3", ErrNotFound), ErrCodeNotFound, false},
		{"wrapped duplicate", fmt.Errorf("%w: favorite", ErrDuplicateConstraint), ErrCodeDuplicateConstraint, false},
		{"wrapped validation", fmt.Errorf("%w: title", ErrValidation), ErrCodeValidation, false},
		{"extraction down", fmt.Errorf("%w: refused", ErrExtractionUnavailable), ErrCodeExtractionUnavailable, true},
		{"extraction decode", fmt.Errorf("%w: bad json", ErrExtractionDecodeError), ErrCodeExtractionDecode, false},
		{"serialization", fmt.Errorf("%w: contacts", ErrSerialization), ErrCodeSerialization, false},
		{"unknown", stderrors.New("boom"), ErrCodeInternal, false},
		{"standard passthrough", NewNotFoundError("user", 1), ErrCodeNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.retryable, got.Retryable)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrCodeDuplicateConstraint))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeValidation))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrCodeExtractionUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeInternal))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "EXTRACTION", GetErrorCategory(ErrCodeExtractionUnavailable))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeDuplicateConstraint))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeNotFound))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestErrorHandler_Respond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantWarn   bool
	}{
		{"not found is a warning", fmt.Errorf("%w: job offer 9", ErrNotFound), http.StatusNotFound, "NOT_FOUND", true},
		{"internal is an error", stderrors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			h := NewErrorHandler(log)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			h.Respond(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
			if tt.wantWarn {
				assert.Len(t, log.warns, 1)
				assert.Empty(t, log.errors)
			} else {
				assert.Len(t, log.errors, 1)
			}
		})
	}
}
