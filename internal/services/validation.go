package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/apperrors"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so messages line up with the request body.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors collects per-field messages before they are turned into one validation error.
type fieldErrors map[string]string

func (f fieldErrors) addStruct(s interface{}) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		f[""] = "invalid request"
		return
	}
	for _, fe := range verrs {
		if _, seen := f[fe.Field()]; !seen {
			f[fe.Field()] = fieldMessage(fe)
		}
	}
}

// add records err if it is a *utils.ValidationError and the field has no message yet.
func (f fieldErrors) add(err error) {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		if _, seen := f[ve.Field]; !seen {
			f[ve.Field] = ve.Message
		}
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	if len(f) == 1 {
		for field, msg := range f {
			return apperrors.Validation(field, msg)
		}
	}
	return apperrors.ValidationFields("validation failed", f)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "eqfield":
		return fmt.Sprintf("%s must match %s", fe.Field(), lowerFirst(fe.Param()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
