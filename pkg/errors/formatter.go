package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse is one field problem in a 400 response.
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagMessages = map[string]string{
	"required": "This field is required",
	"min":      "Value is too small",
	"max":      "Value is too large",
	"len":      "Value must be exact length",
	"numeric":  "Value must be numeric",
	"alphanum": "Value must contain only letters and numbers",
	"url":      "Invalid URL format",
	"uuid":     "Value must be a UUID",
	"gt":       "Value must be greater than specified",
	"gte":      "Value must be greater than or equal to specified",
	"lt":       "Value must be less than specified",
	"lte":      "Value must be less than or equal to specified",
}

var paramMessages = map[string]string{
	"min": "Must be at least %s",
	"max": "Must not exceed %s",
	"len": "Must be exactly %s",
	"gt":  "Must be greater than %s",
	"gte": "Must be greater than or equal to %s",
	"lt":  "Must be less than %s",
	"lte": "Must be less than or equal to %s",
}

func messageFor(fe validator.FieldError) string {
	if format, ok := paramMessages[fe.Tag()]; ok && fe.Param() != "" {
		return fmt.Sprintf(format, fe.Param())
	}
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}

// wireName returns the name a client used for the field: the json tag for bodies, the form tag
// for query strings, the Go name otherwise.
func wireName(model reflect.Type, goName string) string {
	if model == nil {
		return goName
	}
	field, ok := model.FieldByName(goName)
	if !ok {
		return goName
	}
	for _, tag := range []string{"json", "form"} {
		if name, _, _ := strings.Cut(field.Tag.Get(tag), ","); name != "" && name != "-" {
			return name
		}
	}
	return goName
}

// FormatValidationErrors turns binding failures into per-field messages. model is the struct
// (or pointer to it) that was bound and may be nil. Unrecognised errors yield an empty list.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}}
	}

	// Query binding reports unparsable numbers as *strconv.NumError without the field name.
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return []ValidationErrorResponse{{
			Field:   "",
			Message: fmt.Sprintf("Value %q is not a valid number", numErr.Num),
		}}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var modelType reflect.Type
	if model != nil {
		modelType = reflect.TypeOf(model)
		if modelType.Kind() == reflect.Pointer {
			modelType = modelType.Elem()
		}
	}

	out := make([]ValidationErrorResponse, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, ValidationErrorResponse{
			Field:   wireName(modelType, fe.StructField()),
			Message: messageFor(fe),
		})
	}
	return out
}
