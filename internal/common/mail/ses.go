package mail

import (
	"context"
	"errors"
	"fmt"

	awsclient "loan-intake/internal/common/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESMailer sends the same MIME document the SMTP path would, via SendRawEmail.
type SESMailer struct {
	client awsclient.SESAPI
}

func NewSESMailer(client awsclient.SESAPI) *SESMailer {
	return &SESMailer{client: client}
}

func (m *SESMailer) Send(ctx context.Context, msg *Message) error {
	raw, err := msg.Bytes()
	if err != nil {
		return err
	}

	_, err = m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.From.String()),
		Destinations: msg.Recipients(),
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		if isMessageRejection(err) {
			return fmt.Errorf("ses send raw email: %w", err)
		}
		return fmt.Errorf("%w: ses send raw email: %w", ErrTransport, err)
	}
	return nil
}

// isMessageRejection reports SES errors caused by this message alone.
func isMessageRejection(err error) bool {
	var rejected *types.MessageRejected
	var unverified *types.MailFromDomainNotVerifiedException
	return errors.As(err, &rejected) || errors.As(err, &unverified)
}
