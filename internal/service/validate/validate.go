package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/castbook/internal/apperrors"
)

// Phone numbers are stored in E.164 form, '+' is optional on input
var phoneRe = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

var (
	v = newValidator()

	// Separate instance for nested checks made from custom validators
	emailValidator = validator.New()
)

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("identifier", validateIdentifier)
	_ = validate.RegisterValidation("phone", validatePhone)
	validate.RegisterTagNameFunc(useNameTag)
	return validate
}

// Field names come from 'name' tag, then from 'json' tag, so messages match request fields
func useNameTag(fld reflect.StructField) string {
	tag := fld.Tag.Get("name")
	if tag == "" {
		tag = fld.Tag.Get("json")
	}

	name := strings.SplitN(tag, ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

// Identifier is an email or a phone number
func validateIdentifier(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.Contains(value, "@") {
		return emailValidator.Var(value, "email") == nil
	}
	return IsPhone(value)
}

func IsPhone(value string) bool {
	return phoneRe.MatchString(NormalizePhone(value))
}

// NormalizePhone drops formatting characters and keeps leading '+'
func NormalizePhone(value string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(value) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
			// formatting
		default:
			// keep unexpected runes so the regexp rejects them
			b.WriteRune(r)
		}
	}

	s := b.String()
	if s != "" && s[0] != '+' {
		s = "+" + s
	}
	return s
}

// NormalizeIdentifier returns lowercased email or normalized phone number
func NormalizeIdentifier(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "@") {
		return strings.ToLower(value)
	}
	return NormalizePhone(value)
}

// Struct validates s by its 'validate' tags
// Returns *apperrors.ValidationError with message per failed field
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validation error: %w", err)
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = message(fe)
	}

	return apperrors.NewValidationError(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Value is too short (minimum %s)", fe.Param())
	case "max":
		return fmt.Sprintf("Value is too long (maximum %s)", fe.Param())
	case "gte":
		return fmt.Sprintf("Value must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Value must be less than or equal to %s", fe.Param())
	case "email":
		return "Must be a valid email"
	case "phone":
		return "Must be a valid phone number"
	case "identifier":
		return "Must be an email or a phone number"
	case "required_without":
		return "Email or phone number is required"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return "Invalid value"
	}
}
