package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterEnum adds a tag to gin's binding validator that accepts only the
// given string values. Empty strings pass so the tag composes with omitempty.
func RegisterEnum(tag string, values ...string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground validator")
	}
	return registerEnum(v, tag, values...)
}

func registerEnum(v *validator.Validate, tag string, values ...string) error {
	allowed := make(map[string]struct{}, len(values))
	for _, val := range values {
		allowed[val] = struct{}{}
	}
	enumValues[tag] = values

	return v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, ok := allowed[s]
		return ok
	})
}

var enumValues = map[string][]string{}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	}

	if values, ok := enumValues[fe.Tag()]; ok {
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(values, ", "))
	}
	return fmt.Sprintf("%s is invalid", field)
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Username":    "username",
		"Email":       "email",
		"Password":    "password",
		"Bio":         "bio",
		"Title":       "title",
		"Description": "description",
		"Category":    "category",
		"Status":      "status",
		"ReportID":    "report_id",
		"Text":        "text",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
