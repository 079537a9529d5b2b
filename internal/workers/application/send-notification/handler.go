// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"fmt"

	awsclient "loan-intake/internal/common/aws"
	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/mail"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/models"
)

const (
	TaskType = "send-notification"
)

// FileRemover deletes a stored upload once it has been delivered.
type FileRemover interface {
	Remove(file *models.UploadedFile)
}

type Handler struct {
	config    *Config
	mailer    mail.Mailer
	snsClient awsclient.SNSAPI
	files     FileRemover
	logger    logger.Logger
}

// NewHandler wires the staff notifier. snsClient may be nil when SMS alerts
// are disabled.
func NewHandler(config *Config, mailer mail.Mailer, snsClient awsclient.SNSAPI, files FileRemover, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		mailer:    mailer,
		snsClient: snsClient,
		files:     files,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute emails the submission to staff with the upload attached. The
// upload is deleted only after the email is accepted; on failure it stays
// on disk and a DELIVERY_FAILED error is returned.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	submission := input.Submission
	if input.File != nil && submission.LoanDocumentPath == "" {
		submission.LoanDocumentPath = input.File.StoredPath
	}

	body, err := renderNotification(&submission)
	if err != nil {
		return &Output{Status: StatusFailed, SMSStatus: StatusDisabled}, errors.NewInternalError(fmt.Errorf("render notification: %w", err))
	}

	msg := &mail.Message{
		From:     h.config.From,
		To:       []string{h.config.Recipient},
		Subject:  fmt.Sprintf("New Loan Application from %s", submission.Name),
		HTMLBody: body,
	}
	if input.File != nil {
		msg.Attachments = []mail.Attachment{{
			Filename:    input.File.OriginalName,
			ContentType: input.File.ContentType,
			Path:        input.File.StoredPath,
		}}
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues(metrics.KindNotificationEmail, StatusFailed).Inc()
		h.logger.Error("notification email failed", map[string]interface{}{
			"applicant": submission.Name,
			"error":     err,
		})
		return &Output{Status: StatusFailed, SMSStatus: StatusDisabled}, errors.NewDeliveryError("email", err)
	}

	metrics.NotificationsTotal.WithLabelValues(metrics.KindNotificationEmail, StatusSent).Inc()
	h.logger.Info("notification email sent", map[string]interface{}{
		"applicant":     submission.Name,
		"hasAttachment": input.File != nil,
	})

	output := &Output{Status: StatusSent, SMSStatus: StatusDisabled}
	if input.File != nil {
		h.files.Remove(input.File)
		output.CleanupAttempted = true
	}

	output.SMSStatus = h.sendStaffSMS(ctx, &submission)
	return output, nil
}

// sendStaffSMS never fails the notification; its outcome is informational.
func (h *Handler) sendStaffSMS(ctx context.Context, s *models.ApplicationSubmission) string {
	if !h.config.SMSEnabled || h.config.StaffPhone == "" || h.snsClient == nil {
		return StatusDisabled
	}

	text := fmt.Sprintf("New loan application from %s (%s), phone %s, city %s.",
		s.Name, s.LoanType, s.Phone, s.City)

	if _, err := h.snsClient.Publish(ctx, awsclient.TransactionalSMS(h.config.StaffPhone, text)); err != nil {
		metrics.NotificationsTotal.WithLabelValues(metrics.KindStaffSMS, StatusFailed).Inc()
		h.logger.Warn("staff SMS failed", map[string]interface{}{
			"error": errors.NewDeliveryError("sms", err),
		})
		return StatusFailed
	}
	metrics.NotificationsTotal.WithLabelValues(metrics.KindStaffSMS, StatusSent).Inc()
	return StatusSent
}
