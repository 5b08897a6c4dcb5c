package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecube/backend/internal/interfaces/http/dto"
)

type connectRequestPayload struct {
	ChannelName string `json:"channel_name" validate:"required"`
	ShopID      string `json:"shop_id" validate:"required,numeric"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func TestFormatValidationErrors(t *testing.T) {
	v := validator.New()
	err := v.Struct(connectRequestPayload{ShopID: "not-a-number", Email: "bad"})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 3)

	messages := make(map[string]string)
	for _, d := range resp.Error.Details {
		messages[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", messages["ChannelName"])
	assert.Equal(t, "Must be numeric", messages["ShopID"])
	assert.Equal(t, "Invalid email format", messages["Email"])
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestSetupValidator_UsesJSONTagNames(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/connect", func(c *gin.Context) {
		var req struct {
			ChannelName string `json:"channel_name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "channel_name", resp.Error.Details[0].Field)
}

func TestHandleValidationError_CarriesRequestID(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-789")
		c.Next()
	})
	router.POST("/connect", func(c *gin.Context) {
		var req struct {
			ShopID string `json:"shop_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-789", resp.Error.RequestID)
}

func TestGetValidationMessage(t *testing.T) {
	type subject struct {
		Name   string `validate:"required"`
		Code   string `validate:"len=8"`
		Region string `validate:"oneof=sg my th"`
		Weight int    `validate:"gte=1"`
		Site   string `validate:"omitempty,url"`
	}

	v := validator.New()
	err := v.Struct(subject{Code: "short", Region: "us", Weight: 0, Site: "not a url"})
	require.Error(t, err)

	expected := map[string]string{
		"Name":   "This field is required",
		"Code":   "Must be exactly 8 characters",
		"Region": "Must be one of: sg my th",
		"Weight": "Must be greater than or equal to 1",
		"Site":   "Invalid URL format",
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, validationErrors, len(expected))
	for _, fe := range validationErrors {
		assert.Equal(t, expected[fe.Field()], getValidationMessage(fe), "field %s", fe.Field())
	}
}
