package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report failed fields by their JSON name so validation detail matches
	// the wire shape clients actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldIssue describes a single failed validation constraint.
type FieldIssue struct {
	Field string
	Tag   string
}

// ValidateStruct validates a struct using go-playground/validator and
// returns one issue per failed field. A nil slice means the struct passed.
func ValidateStruct(s interface{}) ([]FieldIssue, error) {
	if s == nil {
		return nil, nil
	}

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("validator: expected a struct, got %T", s)
	}

	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	issues := make([]FieldIssue, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		// Namespace looks like "ChangeNotification.record.user_email";
		// keep the nested path without the type prefix.
		if parts := strings.SplitN(e.Namespace(), ".", 2); len(parts) == 2 {
			field = parts[1]
		}
		issues = append(issues, FieldIssue{
			Field: field,
			Tag:   e.Tag(),
		})
	}
	return issues, nil
}
