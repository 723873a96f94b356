package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecraft/backend/internal/interfaces/http/dto"
)

type validationFixture struct {
	Currency string `json:"currency" binding:"required,len=3"`
	Quantity int    `json:"quantity" binding:"min=1"`
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(validationFixture{Currency: "CNYY", Quantity: 0})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-42")

	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)

	// JSON tag names, not Go field names
	fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
	assert.Contains(t, fields, "currency")
	assert.Contains(t, fields, "quantity")
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-43")

	assert.False(t, resp.Success)
	assert.Empty(t, resp.Error.Details)
}
