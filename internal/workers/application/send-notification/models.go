// internal/workers/application/send-notification/models.go
package sendnotification

import "loan-intake/internal/models"

type Input struct {
	Submission models.ApplicationSubmission `json:"submission"`
	File       *models.UploadedFile         `json:"file,omitempty"`
}

type Output struct {
	Status    string `json:"status"`    // "sent" or "failed"
	SMSStatus string `json:"smsStatus"` // "sent", "failed", "disabled"

	// CleanupAttempted is true when the upload was handed to the remover.
	CleanupAttempted bool `json:"cleanupAttempted"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
