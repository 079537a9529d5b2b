// Package mail builds MIME messages and delivers them over SMTP or AWS SES.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// ErrTransport marks a failure of the relay itself (dial, TLS, auth,
// throttling) as opposed to a problem with one message.
var ErrTransport = errors.New("mail transport unavailable")

// Mailer delivers a fully described message.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// String renders `"Name" <email>`, encoding non-ASCII names.
func (a Address) String() string {
	return (&mail.Address{Name: a.Name, Address: a.Email}).String()
}

// Attachment is read from Path at build time and sent under Filename.
type Attachment struct {
	Filename    string
	ContentType string
	Path        string
}

type Message struct {
	From        Address
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
	Date        time.Time
}

// Recipients returns the envelope recipients.
func (m *Message) Recipients() []string {
	return m.To
}

// Build converts the message into a go-mail Msg ready for a client or WriteTo.
func (m *Message) Build() (*gomail.Msg, error) {
	if len(m.To) == 0 {
		return nil, fmt.Errorf("mail: message has no recipients")
	}
	if m.From.Email == "" {
		return nil, fmt.Errorf("mail: message has no sender")
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.From.String()); err != nil {
		return nil, fmt.Errorf("mail: invalid sender: %w", err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("mail: invalid recipient: %w", err)
	}
	msg.Subject(m.Subject)

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	msg.SetDateWithValue(date)
	msg.SetMessageIDWithValue(fmt.Sprintf("%s@%s", uuid.NewString(), senderDomain(m.From.Email)))
	msg.SetBodyString(gomail.TypeTextHTML, m.HTMLBody)

	for _, att := range m.Attachments {
		if _, err := os.Stat(att.Path); err != nil {
			return nil, fmt.Errorf("mail: read attachment %s: %w", att.Filename, err)
		}
		msg.AttachFile(att.Path,
			gomail.WithFileName(att.Filename),
			gomail.WithFileContentType(gomail.ContentType(attachmentType(att))),
		)
	}

	return msg, nil
}

// Bytes renders the message as RFC 5322 text with CRLF line endings.
func (m *Message) Bytes() ([]byte, error) {
	msg, err := m.Build()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("mail: render message: %w", err)
	}
	return buf.Bytes(), nil
}

func attachmentType(att Attachment) string {
	contentType := att.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(att.Filename))
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return "application/octet-stream"
}

func senderDomain(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 && at < len(email)-1 {
		return email[at+1:]
	}
	return "localhost"
}
