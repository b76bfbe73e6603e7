package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	invalidConfigurationTemplate = "invalid configuration: %s"
	violationTemplate            = "%s failed %s"
	violationWithParamTemplate   = "%s failed %s=%s"
	violationSeparator           = "; "
)

// InvalidConfigurationError lists the configuration fields that failed validation.
type InvalidConfigurationError struct {
	Violations []string
}

// Error describes the violations.
func (configurationError InvalidConfigurationError) Error() string {
	return fmt.Sprintf(invalidConfigurationTemplate, strings.Join(configurationError.Violations, violationSeparator))
}

var configurationValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfiguration checks the validate struct tags of configuration.
func ValidateConfiguration(configuration any) error {
	validationError := configurationValidator.Struct(configuration)
	if validationError == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(validationError, &fieldErrors) {
		return validationError
	}
	violations := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		if len(fieldError.Param()) > 0 {
			violations = append(violations, fmt.Sprintf(violationWithParamTemplate, fieldError.Namespace(), fieldError.Tag(), fieldError.Param()))
			continue
		}
		violations = append(violations, fmt.Sprintf(violationTemplate, fieldError.Namespace(), fieldError.Tag()))
	}
	return InvalidConfigurationError{Violations: violations}
}
