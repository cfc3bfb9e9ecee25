package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `validate:"required,email"`
	Brand string `validate:"oneof=Visa MasterCard"`
	CVV   string `validate:"numeric"`
	Name  string `validate:"required"`
	Code  string `validate:"max=2"`
}

func TestValidationError(t *testing.T) {
	err := validator.New().Struct(sample{Email: "not-an-email", Brand: "Mir", CVV: "abc", Code: "toolong"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t,
		"field Email must be a valid email, field Brand must be one of [Visa MasterCard], "+
			"field CVV can contain only numbers, field Name is a required field, field Code is not a valid",
		resp.Error)
}

func TestOKWithData(t *testing.T) {
	resp := OKWithData(map[string]string{"purchase_order_id": "PO-99"})
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]string{"purchase_order_id": "PO-99"}, resp.Data)
}

func TestError(t *testing.T) {
	assert.Equal(t, ErrorResponse{Status: StatusError, Error: "boom"}, Error("boom"))
}
