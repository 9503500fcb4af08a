package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"lecture-rag-be/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(field.Tag.Get("query"), ",", 2)[0]
		}
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidateRequest checks the struct tags of a request DTO and reports the
// first failing field as a validation error.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return apperror.Validation("", err.Error())
	}

	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required", "notblank":
		return apperror.Validation("", fmt.Sprintf("missing required field: %s", fe.Field()))
	case "min", "gte":
		return apperror.Validation("", fmt.Sprintf("field %s must be at least %s", fe.Field(), fe.Param()))
	case "max", "lte":
		return apperror.Validation("", fmt.Sprintf("field %s must be at most %s", fe.Field(), fe.Param()))
	default:
		return apperror.Validation("", fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
	}
}
