// internal/models/application.go
package models

// Form field names as posted by the public site.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldCity        = "city"
	FieldLoanType    = "loanType"
	FieldLoanAmount  = "loanAmount"
	FieldJewelryType = "jewelryType"
	FieldGrams       = "grams"
	FieldMessage     = "message"

	LoanTypeTakeover = "Takeover"
)

// ApplicationSubmission is one posted loan application. It lives for a
// single request and is never persisted.
type ApplicationSubmission struct {
	Name        string `json:"name" form:"name"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"phone" form:"phone"`
	City        string `json:"city" form:"city"`
	LoanType    string `json:"loanType" form:"loanType"`
	LoanAmount  string `json:"loanAmount" form:"loanAmount"`
	JewelryType string `json:"jewelryType" form:"jewelryType"`
	Grams       string `json:"grams" form:"grams"`
	Message     string `json:"message" form:"message"`

	// LoanDocumentPath is set from the stored upload, never from client input.
	LoanDocumentPath string `json:"-"`
}

// Fields returns the submission keyed by form field name.
func (s *ApplicationSubmission) Fields() map[string]string {
	return map[string]string{
		FieldName:        s.Name,
		FieldEmail:       s.Email,
		FieldPhone:       s.Phone,
		FieldCity:        s.City,
		FieldLoanType:    s.LoanType,
		FieldLoanAmount:  s.LoanAmount,
		FieldJewelryType: s.JewelryType,
		FieldGrams:       s.Grams,
		FieldMessage:     s.Message,
	}
}

// UploadedFile describes a document written to the upload directory.
type UploadedFile struct {
	OriginalName string `json:"originalName"`
	StoredPath   string `json:"storedPath"`
	FieldName    string `json:"fieldName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType,omitempty"`
}
