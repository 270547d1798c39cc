// Package validator wraps go-playground/validator with the struct tags the faucet
// forms need and a uniform error shape.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidationFailed is the first error in the chain returned by Validate.
var ErrValidationFailed = errors.New("struct validation failed")

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string
	Tag   string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("'%s': value '%v' does not meet the requirements for the '%s' validation", e.Field, e.Value, e.Tag)
}

var validator *gvalidator.Validate

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
	if err := validator.RegisterValidation("positive_decimal", isPositiveDecimal); err != nil {
		panic(err)
	}
}

// Limits for positive_decimal. Exponents outside the window are rejected
// before the value is used, since "1e20000000" parses without error.
const (
	maxDecimalLength   = 32
	minDecimalExponent = -18
	maxDecimalExponent = 12
)

// isPositiveDecimal accepts strings holding a decimal number greater than zero.
func isPositiveDecimal(fl gvalidator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) > maxDecimalLength {
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	if exp := d.Exponent(); exp < minDecimalExponent || exp > maxDecimalExponent {
		return false
	}
	return d.IsPositive()
}

func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		errs = append(errs, &FieldError{
			Field: validationErr.Field(),
			Tag:   validationErr.Tag(),
			Value: validationErr.Value(),
		})
	}

	return errors.Join(errs...)
}

// Validate checks v against its `validate` struct tags. On failure the returned error
// wraps ErrValidationFailed followed by one *FieldError per failed rule.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}
	return nil
}

// FieldErrors extracts the field errors from an error returned by Validate.
func FieldErrors(err error) []*FieldError {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}

	var out []*FieldError
	for _, e := range joined.Unwrap() {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}
