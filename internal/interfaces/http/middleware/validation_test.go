package middleware

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationFixture struct {
	Warehouse string `json:"from_warehouse" binding:"required"`
	Tracking  string `json:"tracking_type" binding:"required,oneof=NONE SERIAL LOT"`
}

func TestFormatValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(validationFixture{Tracking: "BATCH"})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-42")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)

	// Field names come from JSON tags, not Go field names
	fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
	assert.Contains(t, fields, "from_warehouse")
	assert.Contains(t, fields, "tracking_type")

	for _, detail := range resp.Error.Details {
		switch detail.Field {
		case "from_warehouse":
			assert.Equal(t, "This field is required", detail.Message)
		case "tracking_type":
			assert.Equal(t, "Must be one of: NONE SERIAL LOT", detail.Message)
		}
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-43")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Error.Details)
}
