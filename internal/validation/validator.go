// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dkovalr/emshift/internal/actions"
	"github.com/dkovalr/emshift/internal/roomcode"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is a single failed field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the parameter for the validation tag (e.g. "6" for "len=6").
func (e *ValidationError) Param() string { return e.param }

// Value returns the actual value that failed validation.
func (e *ValidationError) Value() interface{} { return e.value }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects the failed fields of one request.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	var messages []string
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Message returns a single human-readable line suitable for an API reply.
func (ve *RequestValidationError) Message() string {
	if len(ve.errors) == 0 {
		return "Validation failed"
	}
	if len(ve.errors) == 1 {
		return ve.errors[0].message
	}

	var messages []string
	for _, err := range ve.errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.field, err.message))
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance. Thread-safe; the
// instance caches struct metadata across calls.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// roomcode: 6 chars from the room alphabet, case-insensitive.
		_ = validate.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
			return roomcode.Valid(fl.Field().String())
		})

		// action: one of the gateway action names.
		_ = validate.RegisterValidation("action", func(fl validator.FieldLevel) bool {
			return actions.Known(fl.Field().String())
		})
	})

	return validate
}

// ValidateStruct validates a struct using the singleton validator. Returns
// nil when validation passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{
				{field: "unknown", tag: "unknown", message: err.Error()},
			},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"roomcode": "%s must be a 6-character room code",
	"action":   "%s must be a known action name",
	"url":      "%s must be a valid URL",
	"numeric":  "%s must be numeric",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"len":   "%s must be exactly %s characters",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind().String() == "string"

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
