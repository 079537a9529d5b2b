// internal/workers/communication/send-auto-reply/models.go
package sendautoreply

import "loan-intake/internal/models"

type Input struct {
	Submission models.ApplicationSubmission `json:"submission"`
}

type Output struct {
	Status    string `json:"status"`
	Recipient string `json:"recipient,omitempty"`
}

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)
