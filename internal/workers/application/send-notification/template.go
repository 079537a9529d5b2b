// internal/workers/application/send-notification/template.go
package sendnotification

import (
	"bytes"
	"html/template"

	"loan-intake/internal/models"
)

var notificationTemplate = template.Must(template.New("notification").Parse(`
<h1 style="color: #D4AF37;">New Loan Application Received</h1>
<p>A new application has been submitted via the website.</p>
<hr>
<h3 style="color: #333;">Applicant Details:</h3>
<table border="1" cellpadding="10" cellspacing="0" style="border-collapse: collapse; width: 100%;">
  <tr style="background-color: #f2f2f2;"><td style="width: 30%;"><strong>Name:</strong></td><td>{{or .Name "N/A"}}</td></tr>
  <tr><td><strong>Phone:</strong></td><td>{{or .Phone "N/A"}}</td></tr>
  <tr style="background-color: #f2f2f2;"><td><strong>Email:</strong></td><td>{{or .Email "N/A"}}</td></tr>
  <tr><td><strong>City:</strong></td><td>{{or .City "N/A"}}</td></tr>
  <tr style="background-color: #f2f2f2;"><td><strong>Loan Type:</strong></td><td>{{or .LoanType "N/A"}}</td></tr>
  <tr><td><strong>Desired Amount (₹):</strong></td><td>{{or .LoanAmount "N/A"}}</td></tr>
  <tr style="background-color: #f2f2f2;"><td><strong>Jewelry Type:</strong></td><td>{{or .JewelryType "N/A"}}</td></tr>
  <tr><td><strong>Grams:</strong></td><td>{{or .Grams "N/A"}}</td></tr>
  <tr style="background-color: #f2f2f2;"><td><strong>Document Path:</strong></td><td>{{or .LoanDocumentPath "N/A"}}</td></tr>
  <tr><td valign="top"><strong>Message:</strong></td><td valign="top">{{or .Message "N/A"}}</td></tr>
</table>
`))

func renderNotification(s *models.ApplicationSubmission) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}
