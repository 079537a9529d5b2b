// internal/workers/auth/admin-session/handler.go
package adminsession

import (
	"fmt"
	"net/http"

	"loan-intake/internal/common/auth"
	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"

	"github.com/gorilla/sessions"
)

const (
	TaskType = "admin-session"
)

// Handler moves a client session between anonymous and authenticated.
type Handler struct {
	config   *Config
	store    sessions.Store
	verifier auth.Verifier
	logger   logger.Logger
}

func NewHandler(config *Config, store sessions.Store, verifier auth.Verifier, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Handler{
		config:   config,
		store:    store,
		verifier: verifier,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// LoginPath is where unauthenticated admin requests are redirected.
func (h *Handler) LoginPath() string {
	return h.config.LoginPath
}

// Login authenticates the client when password is accepted by the verifier.
// A fresh session is issued so an identifier planted before login is never
// promoted.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, password string) (*LoginOutput, error) {
	if !h.verifier.Verify(r.Context(), password) {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.logger.Warn("admin login rejected", map[string]interface{}{"remoteAddr": r.RemoteAddr})
		return nil, errors.NewAuthError("password mismatch")
	}

	sess, err := h.regenerate(w, r)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, errors.NewSessionError(MessageSessionSaveError, err)
	}

	sess.Values[AuthenticatedKey] = true
	if err := sess.Save(r, w); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.logger.Error("failed to save admin session", map[string]interface{}{"error": err})
		return nil, errors.NewSessionError(MessageSessionSaveError, fmt.Errorf("save session: %w", err))
	}

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.logger.Info("admin logged in", map[string]interface{}{"remoteAddr": r.RemoteAddr})
	return &LoginOutput{Success: true, Message: MessageLoginSuccessful}, nil
}

// regenerate drops any server-side state for the current session and
// returns an empty session that will be saved under a new identifier.
func (h *Handler) regenerate(w http.ResponseWriter, r *http.Request) (*sessions.Session, error) {
	old, err := h.store.Get(r, h.config.CookieName)
	if err != nil {
		h.logger.Debug("discarding unreadable session", map[string]interface{}{"error": err})
	}
	if old != nil && !old.IsNew && old.ID != "" {
		old.Options.MaxAge = -1
		if err := old.Save(r, w); err != nil {
			return nil, fmt.Errorf("destroy previous session: %w", err)
		}
	}

	fresh, _ := h.store.New(r, h.config.CookieName)
	if fresh == nil {
		fresh = sessions.NewSession(h.store, h.config.CookieName)
	}
	fresh.ID = ""
	fresh.IsNew = true
	fresh.Values = make(map[interface{}]interface{})
	return fresh, nil
}

// Logout destroys the session and clears its cookie. It succeeds for
// clients that never logged in.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) (*LogoutOutput, error) {
	sess, err := h.store.Get(r, h.config.CookieName)
	if err != nil {
		h.logger.Debug("logging out unreadable session", map[string]interface{}{"error": err})
	}
	if sess == nil {
		sess = sessions.NewSession(h.store, h.config.CookieName)
		sess.Options = &sessions.Options{Path: "/"}
	}

	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		h.logger.Error("failed to destroy admin session", map[string]interface{}{"error": err})
		return nil, errors.NewSessionError(MessageLogoutFailed, err)
	}

	h.logger.Info("admin logged out", nil)
	return &LogoutOutput{Success: true, Message: MessageLoggedOut}, nil
}

// IsAuthenticated reports whether the request carries an authenticated,
// unexpired session. Checking does not extend the session.
func (h *Handler) IsAuthenticated(r *http.Request) bool {
	sess, err := h.store.Get(r, h.config.CookieName)
	if err != nil || sess == nil {
		return false
	}
	ok, _ := sess.Values[AuthenticatedKey].(bool)
	return ok
}
