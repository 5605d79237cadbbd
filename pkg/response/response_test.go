package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccessEnvelope(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { Success(c, gin.H{"id": int64(9007199254740993)}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["isSuccess"])
	assert.EqualValues(t, 200, body["code"])
	assert.Contains(t, w.Body.String(), `"id":9007199254740993`)
}

func TestErrorEnvelope(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, apperr.Conflict(apperr.CodeInterestExists, "already interested"))
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, body["isSuccess"])
	assert.Equal(t, "already interested", body["message"])
	result := body["result"].(map[string]any)
	assert.Equal(t, apperr.CodeInterestExists, result["errorCode"])
}

func TestUntypedErrorBecomesInternal(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { Error(c, errors.New("pq: relation does not exist")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "pq:")
}
