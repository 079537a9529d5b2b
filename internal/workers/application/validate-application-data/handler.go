// internal/workers/application/validate-application-data/handler.go
package validateapplicationdata

import (
	"context"
	"fmt"
	"strings"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/models"
)

const (
	TaskType = "validate-application-data"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute evaluates every rule. An invalid submission returns the full
// Output together with a VALIDATION_FAILED error carrying the joined messages.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	fields := input.Fields
	if fields == nil {
		fields = map[string]string{}
	}

	var validationErrors []ValidationError
	add := func(field, code, message string) {
		validationErrors = append(validationErrors, ValidationError{Field: field, Code: code, Message: message})
	}

	if strings.TrimSpace(fields[models.FieldName]) == "" {
		add(models.FieldName, CodeRequired, "Name is required.")
	}

	if !validation.IsEmail(fields[models.FieldEmail]) {
		add(models.FieldEmail, CodeInvalidEmail, "Please provide a valid email address.")
	}

	phone := strings.TrimSpace(fields[models.FieldPhone])
	if validation.CharLength(phone) != h.config.PhoneLength {
		add(models.FieldPhone, CodeInvalidLength, fmt.Sprintf("Phone number must be %d digits.", h.config.PhoneLength))
	}
	if !validation.IsDigits(phone) {
		add(models.FieldPhone, CodeNotNumeric, "Phone number must contain only digits.")
	}

	if strings.TrimSpace(fields[models.FieldCity]) == "" {
		add(models.FieldCity, CodeRequired, "City is required.")
	}

	if fields[models.FieldLoanType] == h.config.DocumentRequiredFor && !input.FilePresent {
		add(models.FieldLoanType, CodeDocumentNeeded,
			fmt.Sprintf("A loan document is required for %s loans.", h.config.DocumentRequiredFor))
	}

	output := &Output{
		IsValid:          len(validationErrors) == 0,
		ValidationErrors: validationErrors,
	}

	h.logger.Debug("validation completed", map[string]interface{}{
		"isValid":    output.IsValid,
		"errorCount": len(validationErrors),
	})

	if !output.IsValid {
		return output, errors.NewValidationError(output.Message()).
			WithMetadata("errorCount", len(validationErrors))
	}
	return output, nil
}
