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

	"github.com/wyfcoding/creditline/internal/loan/domain"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrCooldownActive), http.StatusConflict},
		{domain.ErrAccountNotFound.Withf("no account for c1"), http.StatusNotFound},
		{domain.FatalStatef("broken"), http.StatusInternalServerError},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestFail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/unknown", func(c *gin.Context) { fail(c, errors.New("dial tcp: connection refused")) })
	router.GET("/conflict", func(c *gin.Context) { fail(c, domain.ErrOtpExpired) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 50000, resp.Code)
	assert.Equal(t, "internal server error", resp.Message)
	assert.Empty(t, resp.Reason)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "OTP_EXPIRED", resp.Reason)
	assert.Equal(t, "otp has expired", resp.Message)
}
