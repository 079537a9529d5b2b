// internal/workers/application/validate-application-data/models.go
package validateapplicationdata

import "strings"

type Input struct {
	Fields      map[string]string `json:"fields"`
	FilePresent bool              `json:"filePresent"`
}

type Output struct {
	IsValid          bool              `json:"isValid"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	CodeRequired       = "MISSING_REQUIRED"
	CodeInvalidEmail   = "INVALID_EMAIL"
	CodeInvalidLength  = "INVALID_LENGTH"
	CodeNotNumeric     = "NOT_NUMERIC"
	CodeDocumentNeeded = "DOCUMENT_REQUIRED"
)

// Messages returns the rule messages in evaluation order, duplicates kept.
func (o *Output) Messages() []string {
	out := make([]string, 0, len(o.ValidationErrors))
	for _, ve := range o.ValidationErrors {
		out = append(out, ve.Message)
	}
	return out
}

// Message joins Messages with single spaces.
func (o *Output) Message() string {
	return strings.Join(o.Messages(), " ")
}
