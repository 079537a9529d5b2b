package server

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	stderrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/models"
	sendnotification "loan-intake/internal/workers/application/send-notification"
	storeloandocument "loan-intake/internal/workers/application/store-loan-document"
	validateapplicationdata "loan-intake/internal/workers/application/validate-application-data"
	sendautoreply "loan-intake/internal/workers/communication/send-auto-reply"

	"github.com/labstack/echo/v4"
)

const messageSubmitted = "Form submitted successfully!"

// handleSubmitApplication stores the optional document, validates the form
// and answers before any notification is attempted.
func (s *Server) handleSubmitApplication(c echo.Context) error {
	ctx := c.Request().Context()

	var submission models.ApplicationSubmission
	if err := c.Bind(&submission); err != nil {
		if isBodyTooLarge(err) {
			return echo.ErrStatusRequestEntityTooLarge
		}
		// An unreadable body is validated as an empty submission.
		s.logger.Debug("submission body could not be bound", map[string]interface{}{"error": err})
		submission = models.ApplicationSubmission{}
	}

	file, err := s.storeDocument(ctx, c)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return err
	}
	if file != nil {
		submission.LoanDocumentPath = file.StoredPath
	}

	if _, err := s.validator.Execute(ctx, &validateapplicationdata.Input{
		Fields:      submission.Fields(),
		FilePresent: file != nil,
	}); err != nil {
		if file != nil {
			s.documents.Remove(file)
		}
		if stderrors.HasCode(err, stderrors.ErrCodeValidationFailed) {
			metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		} else {
			metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return err
	}

	if err := respondOK(c, messageSubmitted); err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()

	s.dispatchNotifications(submission, file)
	return nil
}

// storeDocument returns nil when the request carries no document.
func (s *Server) storeDocument(ctx context.Context, c echo.Context) (*models.UploadedFile, error) {
	header, err := c.FormFile(s.config.Upload.FieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		if isBodyTooLarge(err) {
			return nil, echo.ErrStatusRequestEntityTooLarge
		}
		s.logger.Debug("ignoring unreadable upload", map[string]interface{}{"error": err})
		return nil, nil
	}

	return s.saveFormFile(ctx, header)
}

// isBodyTooLarge finds the body limit error under the 400 echo's binder
// wraps around it when the request has no Content-Length.
func isBodyTooLarge(err error) bool {
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return true
	}
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}

func (s *Server) saveFormFile(ctx context.Context, header *multipart.FileHeader) (*models.UploadedFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, stderrors.NewStorageError(fmt.Errorf("open upload: %w", err))
	}
	defer src.Close()

	return s.documents.Execute(ctx, &storeloandocument.Input{
		OriginalName: header.Filename,
		ContentType:  header.Header.Get(echo.HeaderContentType),
		Content:      src,
	})
}

// dispatchNotifications hands both emails to the queue; their outcome never
// reaches the client.
func (s *Server) dispatchNotifications(submission models.ApplicationSubmission, file *models.UploadedFile) {
	err := s.queue.Enqueue(sendnotification.TaskType, func(ctx context.Context) error {
		_, err := s.notifier.Execute(ctx, &sendnotification.Input{Submission: submission, File: file})
		return err
	})
	if err != nil {
		s.logger.Error("failed to enqueue notification", map[string]interface{}{"error": err})
		if file != nil {
			s.documents.Remove(file)
		}
	}

	err = s.queue.Enqueue(sendautoreply.TaskType, func(ctx context.Context) error {
		_, err := s.autoReplier.Execute(ctx, &sendautoreply.Input{Submission: submission})
		return err
	})
	if err != nil {
		s.logger.Error("failed to enqueue auto-reply", map[string]interface{}{"error": err})
	}
}
