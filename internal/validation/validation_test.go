package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPhone(t *testing.T) {
	for _, in := range []string{"0712345678", "712345678", "254712345678", "+254712345678"} {
		assert.True(t, IsValidPhone(in), in)
	}
	for _, in := range []string{"", "12345", "abc"} {
		assert.False(t, IsValidPhone(in), in)
	}
}

func TestCustomTags(t *testing.T) {
	type payload struct {
		Phone string `validate:"required,msisdn"`
		Unit  string `validate:"required,material_unit"`
	}

	require.NoError(t, ValidateStruct(payload{Phone: "0712345678", Unit: "kg"}))

	err := ValidateStruct(payload{Phone: "123", Unit: "tonnes"})
	require.Error(t, err)
	msg := Messages(err)
	assert.Contains(t, msg, "Phone failed on msisdn")
	assert.Contains(t, msg, "Unit failed on material_unit")
}
