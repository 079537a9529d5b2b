// internal/workers/application/send-notification/config.go
package sendnotification

import "loan-intake/internal/common/mail"

type Config struct {
	From      mail.Address
	Recipient string

	SMSEnabled bool
	StaffPhone string
}
