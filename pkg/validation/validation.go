package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	dErrors "dashgate/pkg/domain-errors"
	s "dashgate/pkg/string"
)

// FieldErrors maps a form field (its JSON name) to the message shown next to it.
// Empty means the form is valid.
type FieldErrors map[string]string

// MessageOverrider lets a form replace the default message for a field/tag pair.
// Keys are "<json field>.<tag>", e.g. "email.email".
type MessageOverrider interface {
	ValidationMessages() map[string]string
}

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("has_upper", containsRune(unicode.IsUpper))
	_ = v.RegisterValidation("has_lower", containsRune(unicode.IsLower))
	_ = v.RegisterValidation("has_digit", containsRune(unicode.IsDigit))
	return v
}

func containsRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

// ValidateForm runs every rule on req and returns one message per failing field.
// It never performs I/O.
func ValidateForm(req any) FieldErrors {
	err := defaultValidator.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return FieldErrors{"": "invalid request body"}
	}

	var overrides map[string]string
	if o, ok := req.(MessageOverrider); ok {
		overrides = o.ValidationMessages()
	}
	labels := fieldLabels(req)

	out := make(FieldErrors, len(validationErrs))
	for _, fe := range validationErrs {
		field := fieldKey(fe)
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := overrides[field+"."+fe.ActualTag()]; ok {
			out[field] = msg
			continue
		}
		out[field] = message(fe, labels[fe.StructField()])
	}
	return out
}

// Validate validates a struct using the default validator and returns a domain error
// carrying every field message. The error message is the first failing field in
// declaration order.
func Validate(req any) error {
	fields := ValidateForm(req)
	if len(fields) == 0 {
		return nil
	}
	return dErrors.NewValidation(fields, fieldOrder(req)...)
}

func message(fe validator.FieldError, label string) string {
	if label == "" {
		label = humanize(fe.StructField())
	}
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.ActualTag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Invalid email address"
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid url", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", label, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", label, fe.Param(), unit)
	case "len":
		return fmt.Sprintf("%s must be %s%s", label, fe.Param(), unit)
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", label, fe.Param())
	case "has_upper":
		return fmt.Sprintf("%s must contain at least one uppercase letter", label)
	case "has_lower":
		return fmt.Sprintf("%s must contain at least one lowercase letter", label)
	case "has_digit":
		return fmt.Sprintf("%s must contain at least one number", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func fieldKey(fe validator.FieldError) string {
	if fe.Field() != "" {
		return fe.Field()
	}
	return s.ToSnakeCase(fe.StructField())
}

// fieldLabels reads optional `label:"First Name"` tags keyed by struct field name.
func fieldLabels(req any) map[string]string {
	t := indirectType(req)
	if t == nil {
		return nil
	}
	labels := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if l := f.Tag.Get("label"); l != "" {
			labels[f.Name] = l
		}
	}
	return labels
}

func fieldOrder(req any) []string {
	t := indirectType(req)
	if t == nil {
		return nil
	}
	order := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			name = s.ToSnakeCase(f.Name)
		}
		order = append(order, name)
	}
	return order
}

func indirectType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// humanize turns "FirstName" into "First Name".
func humanize(field string) string {
	words := strings.Split(s.ToSnakeCase(field), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
