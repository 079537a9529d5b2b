// internal/workers/auth/admin-session/models.go
package adminsession

// AuthenticatedKey is the session value set to true after a successful login.
const AuthenticatedKey = "isAuthenticated"

type LoginOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LogoutOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	MessageLoginSuccessful  = "Login successful."
	MessageLoggedOut        = "Logged out successfully."
	MessageLogoutFailed     = "Could not log out."
	MessageSessionSaveError = "Server error. Please try again."
)
