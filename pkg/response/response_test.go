package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cantor/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestOK(t *testing.T) {
	c, rec := newTestContext()

	OK(c, gin.H{"balance": "100.5"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RequestID)
	assert.NotEmpty(t, body.Timestamp)
}

func TestCreated(t *testing.T) {
	c, rec := newTestContext()

	Created(c, gin.H{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNoContent(t *testing.T) {
	c, rec := newTestContext()

	NoContent(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestError_AppError(t *testing.T) {
	c, rec := newTestContext()

	Error(c, apperror.ErrInsufficientFunds())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TXN_002", body.ErrorCode)
}

func TestError_WrappedAppError(t *testing.T) {
	c, rec := newTestContext()

	wrapped := fmt.Errorf("handler: %w", apperror.ErrLedgerNotFound())
	Error(c, wrapped)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestError_UnknownError(t *testing.T) {
	c, rec := newTestContext()

	Error(c, fmt.Errorf("something broke"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SYS_000", body.ErrorCode)
	assert.NotContains(t, body.Message, "something broke")
}

func TestRequestID_Propagated(t *testing.T) {
	c, rec := newTestContext()
	c.Set("request_id", "req-42")

	OK(c, nil)

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-42", body.RequestID)
}
