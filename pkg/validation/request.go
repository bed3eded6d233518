package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

// Error joins all messages in field order.
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		messages = append(messages, e[field]...)
	}
	return strings.Join(messages, "; ")
}

// Add appends a message for field.
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Validator checks request structs tagged with `validate`.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their JSON names and knows
// the `wholenumber` rule.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("wholenumber", isWholeNumber)

	return &Validator{validate: v}
}

// Struct validates s. It returns FieldErrors for rule violations, nil when s
// is valid, and any other error unchanged.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fieldErrors := make(FieldErrors, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors.Add(e.Field(), message(e))
	}
	return fieldErrors
}

func message(e validator.FieldError) string {
	label := strings.ReplaceAll(e.Field(), "_", " ")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "wholenumber":
		return fmt.Sprintf("The %s field must be an integer.", label)
	case "min", "gte":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", label, e.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", label, e.Param())
	case "max", "lte":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", label, e.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", label, e.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}

func isWholeNumber(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}

	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
