package mail

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_String(t *testing.T) {
	addr := Address{Name: "Gold 2 Money Notifier", Email: "notifier@example.com"}
	assert.Equal(t, `"Gold 2 Money Notifier" <notifier@example.com>`, addr.String())
	assert.Equal(t, "<notifier@example.com>", Address{Email: "notifier@example.com"}.String())
}

func TestMessage_Bytes_HTMLOnly(t *testing.T) {
	msg := &Message{
		From:     Address{Name: "Notifier", Email: "notifier@example.com"},
		To:       []string{"staff@example.com"},
		Subject:  "New Loan Application from Asha",
		HTMLBody: "<p>Hello</p>",
		Date:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	raw, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "New Loan Application from Asha", parsed.Header.Get("Subject"))
	to, err := parsed.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "staff@example.com", to[0].Address)
	from, err := parsed.Header.AddressList("From")
	require.NoError(t, err)
	assert.Equal(t, "Notifier", from[0].Name)
	assert.Equal(t, "notifier@example.com", from[0].Address)
	assert.Contains(t, parsed.Header.Get("Message-ID"), "@example.com>")
	assert.True(t, strings.HasPrefix(parsed.Header.Get("Content-Type"), "text/html"))

	body, err := io.ReadAll(quotedprintable.NewReader(parsed.Body))
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello</p>", strings.TrimSpace(string(body)))
}

func TestMessage_Bytes_EncodesUnicodeSubject(t *testing.T) {
	msg := &Message{
		From:     Address{Email: "notifier@example.com"},
		To:       []string{"staff@example.com"},
		Subject:  "New Loan Application from Åsa",
		HTMLBody: "<p>x</p>",
	}

	raw, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	decoded, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "New Loan Application from Åsa", decoded)
}

func TestMessage_Bytes_WithAttachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loanDocument-1-abc.pdf")
	content := bytes.Repeat([]byte("%PDF-1.4 payload "), 20)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	msg := &Message{
		From:     Address{Email: "notifier@example.com"},
		To:       []string{"staff@example.com"},
		Subject:  "with file",
		HTMLBody: "<table></table>",
		Attachments: []Attachment{
			{Filename: "salary slip.pdf", ContentType: "application/pdf", Path: path},
		},
	}

	raw, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])

	htmlPart, err := reader.NextPart()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(htmlPart.Header.Get("Content-Type"), "text/html"))

	filePart, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "salary slip.pdf", filePart.FileName())

	encoded, err := io.ReadAll(filePart)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(encoded)), ""))
	require.NoError(t, err)
	assert.Equal(t, content, decoded)

	_, err = reader.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestMessage_Bytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
	}{
		{
			name: "no recipients",
			msg:  &Message{From: Address{Email: "a@example.com"}},
		},
		{
			name: "no sender",
			msg:  &Message{To: []string{"b@example.com"}},
		},
		{
			name: "missing attachment file",
			msg: &Message{
				From:        Address{Email: "a@example.com"},
				To:          []string{"b@example.com"},
				Attachments: []Attachment{{Filename: "x.pdf", Path: "/nonexistent/x.pdf"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.msg.Bytes()
			assert.Error(t, err)
		})
	}
}
