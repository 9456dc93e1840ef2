package utils

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator, reporting json names in field errors.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct returns nil or json field -> failed tag.
func ValidateStruct(v any) map[string]string {
	if err := GetValidator().Struct(v); err != nil {
		return ProcessValidationErrors(err)
	}
	return nil
}

// IsPresent reports whether a decoded form value counts as filled in.
// Strings must be non-blank; numbers are present even when zero, nil is not.
func IsPresent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return GetValidator().Var(strings.TrimSpace(t), "required") == nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			return !rv.IsNil()
		case reflect.Slice, reflect.Map:
			return rv.Len() > 0
		}
		return true
	}
}
