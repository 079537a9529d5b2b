// internal/workers/communication/send-auto-reply/template.go
package sendautoreply

import (
	"bytes"
	"html/template"
	"strings"

	"loan-intake/internal/models"
)

var autoReplyTemplate = template.Must(template.New("auto-reply").Parse(`
<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 20px auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px; background-color: #f9f9f9;">
    <div style="text-align: center; border-bottom: 2px solid #D4AF37; padding-bottom: 15px; margin-bottom: 20px;">
      <h1 style="color: #D4AF37; margin: 0;">{{.Brand}}</h1>
    </div>
    <h2 style="color: #333;">Thank You for Your Application, {{.Submission.Name}}!</h2>
    <p>Dear {{.Submission.Name}},</p>
    <p>We have successfully received your loan application/enquiry. Thank you for choosing {{.Brand}}.</p>
    <p>Our team is reviewing your details and will get in touch with you shortly to discuss the next steps. We are committed to providing you with the best possible service.</p>
    <p><strong>Here is a summary of the information you submitted:</strong></p>
    <table border="1" cellpadding="8" cellspacing="0" style="border-collapse: collapse; width: 100%; background-color: #fff;">
      <tr style="background-color: #f2f2f2;"><td style="width: 30%;"><strong>Name:</strong></td><td>{{or .Submission.Name "N/A"}}</td></tr>
      <tr><td><strong>Phone:</strong></td><td>{{or .Submission.Phone "N/A"}}</td></tr>
      <tr style="background-color: #f2f2f2;"><td><strong>Loan Type:</strong></td><td>{{or .Submission.LoanType "N/A"}}</td></tr>
      <tr><td><strong>Desired Amount (₹):</strong></td><td>{{or .Submission.LoanAmount "N/A"}}</td></tr>
    </table>
    <p style="margin-top: 20px;">If you have any immediate questions, please feel free to contact us at <a href="{{.ContactLink}}">{{.ContactPhone}}</a> or reply to this email.</p>
    <p>Best Regards,<br><strong>The {{.Brand}} Team</strong></p>
    <div style="text-align: center; font-size: 12px; color: #777; margin-top: 20px; border-top: 1px solid #ddd; padding-top: 15px;">
      <p>&copy; {{.Year}} {{.Brand}}. All Rights Reserved.</p>
    </div>
  </div>
</div>
`))

type autoReplyView struct {
	Brand        string
	ContactPhone string
	ContactLink  template.URL
	Year         int
	Submission   *models.ApplicationSubmission
}

func renderAutoReply(view *autoReplyView) (string, error) {
	var buf bytes.Buffer
	if err := autoReplyTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// telLink keeps a leading '+' and the digits of a display phone number.
func telLink(phone string) template.URL {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '+' {
			return r
		}
		return -1
	}, phone)
	return template.URL("tel:" + digits)
}
