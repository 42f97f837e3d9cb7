package validation

import (
	"fmt"
	"strings"

	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/payment"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is the region phone numbers are parsed in.
const DefaultRegion = "KE"

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := Register(validate); err != nil {
		panic(err)
	}
}

// ValidateStruct validates a struct using validation tags
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsValidPhone reports whether s is a dialable number once normalized.
func IsValidPhone(s string) bool {
	n := payment.NormalizePhone(s)
	if strings.HasPrefix(n, "254") {
		n = "+" + n
	}
	num, err := libphonenumber.Parse(n, DefaultRegion)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}

// Register adds the custom tags to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register msisdn: %w", err)
	}
	if err := v.RegisterValidation("material_unit", func(fl validator.FieldLevel) bool {
		return models.UnitOfMeasure(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("register material_unit: %w", err)
	}
	return nil
}

// RegisterWithGin adds the custom tags to gin's binding validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// Messages flattens validator errors into one readable line.
func Messages(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
