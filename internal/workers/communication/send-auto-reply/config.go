// internal/workers/communication/send-auto-reply/config.go
package sendautoreply

import "loan-intake/internal/common/mail"

type Config struct {
	Brand        string
	From         mail.Address
	ContactPhone string
}

// DefaultConfig uses the public brand as the sender display name.
func DefaultConfig(fromEmail string) *Config {
	return &Config{
		Brand:        "Gold 2 Money",
		From:         mail.Address{Name: "Gold 2 Money", Email: fromEmail},
		ContactPhone: "+91 95946 07030",
	}
}
