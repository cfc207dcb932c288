// Package validate wraps go-playground/validator for request payloads.
//
// Struct tags name the rules; Validate turns the first failing rule into an
// apperror.ValidationFailed carrying the JSON field name and a localised
// message.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/i18n"
)

type Validator struct {
	validate *validator.Validate
	msgs     *i18n.Catalog
}

func New(msgs *i18n.Catalog) *Validator {
	v := validator.New()

	// Report fields by their JSON name so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Custom validators
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("sex", validateSex)
	_ = v.RegisterValidation("member", validateMember)

	return &Validator{validate: v, msgs: msgs}
}

// Validate checks i against its validate tags. It returns nil, or an
// *apperror.AppError wrapping apperror.ErrValidation.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}

	fe := fieldErrs[0]
	return apperror.ValidationFailed(fe.Field(), v.message(fe))
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return v.msgs.Tf(i18n.KeyFieldRequired, fe.Field())
	case "email":
		return v.msgs.Tf(i18n.KeyFieldEmail, fe.Field())
	case "min":
		return v.msgs.Tf(i18n.KeyFieldMin, fe.Field(), fe.Param())
	default:
		return v.msgs.Tf(i18n.KeyFieldInvalid, fe.Field())
	}
}

// validateNotBlank fails on strings that are empty after trimming.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateSex(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "", "male", "female":
		return true
	}
	return false
}

func validateMember(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "", "yes", "no":
		return true
	}
	return false
}
