// internal/workers/communication/send-auto-reply/handler.go
package sendautoreply

import (
	"context"
	"fmt"
	"strings"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/mail"
	"loan-intake/internal/common/metrics"

	"github.com/jonboulle/clockwork"
)

const (
	TaskType = "send-auto-reply"
)

type Handler struct {
	config *Config
	mailer mail.Mailer
	clock  clockwork.Clock
	logger logger.Logger
}

func NewHandler(config *Config, mailer mail.Mailer, clock clockwork.Clock, log logger.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{
		config: config,
		mailer: mailer,
		clock:  clock,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute sends the applicant a confirmation with a summary of the
// submission. Submissions without an email address are skipped.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	submission := input.Submission
	to := strings.TrimSpace(submission.Email)
	if to == "" {
		h.logger.Info("no applicant email, skipping auto-reply", nil)
		return &Output{Status: StatusSkipped}, nil
	}

	body, err := renderAutoReply(&autoReplyView{
		Brand:        h.config.Brand,
		ContactPhone: h.config.ContactPhone,
		ContactLink:  telLink(h.config.ContactPhone),
		Year:         h.clock.Now().Year(),
		Submission:   &submission,
	})
	if err != nil {
		return &Output{Status: StatusFailed, Recipient: to}, errors.NewInternalError(fmt.Errorf("render auto-reply: %w", err))
	}

	msg := &mail.Message{
		From:     h.config.From,
		To:       []string{to},
		Subject:  fmt.Sprintf("We Have Received Your Loan Application - %s", h.config.Brand),
		HTMLBody: body,
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues(metrics.KindAutoReplyEmail, StatusFailed).Inc()
		h.logger.Error("auto-reply email failed", map[string]interface{}{
			"recipient": to,
			"error":     err,
		})
		return &Output{Status: StatusFailed, Recipient: to}, errors.NewDeliveryError("email", err)
	}

	metrics.NotificationsTotal.WithLabelValues(metrics.KindAutoReplyEmail, StatusSent).Inc()
	h.logger.Info("auto-reply email sent", map[string]interface{}{"recipient": to})
	return &Output{Status: StatusSent, Recipient: to}, nil
}
