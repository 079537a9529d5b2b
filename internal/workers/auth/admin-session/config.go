// internal/workers/auth/admin-session/config.go
package adminsession

type Config struct {
	CookieName string
	LoginPath  string
}

func DefaultConfig() *Config {
	return &Config{
		CookieName: "loan_intake.sid",
		LoginPath:  "/login.html",
	}
}
