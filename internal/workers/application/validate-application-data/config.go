// internal/workers/application/validate-application-data/config.go
package validateapplicationdata

type Config struct {
	PhoneLength int
	// DocumentRequiredFor is the loan type that must carry an uploaded document.
	DocumentRequiredFor string
}

func LoadConfig() *Config {
	return &Config{
		PhoneLength:         10,
		DocumentRequiredFor: "Takeover",
	}
}
