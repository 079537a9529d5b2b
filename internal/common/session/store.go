// Package session provides the gorilla/sessions stores backing the admin session.
package session

import (
	"fmt"
	"net/http"

	"loan-intake/internal/common/config"

	"github.com/gorilla/sessions"
)

// Options returns cookie options for the configured TTL. The TTL is fixed
// from the moment the session is saved at login; requests do not extend it.
func Options(cfg config.SessionConfig, secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieStore keeps the whole session in a signed cookie.
func NewCookieStore(cfg config.SessionConfig, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = Options(cfg, secure)
	store.MaxAge(store.Options.MaxAge)
	return store
}

// New builds the store selected by cfg.Store. kv is only used by the redis store.
func New(cfg config.SessionConfig, secure bool, kv KV) (sessions.Store, error) {
	switch cfg.Store {
	case "", config.SessionStoreCookie:
		return NewCookieStore(cfg, secure), nil
	case config.SessionStoreRedis:
		if kv == nil {
			return nil, fmt.Errorf("redis session store requires a redis client")
		}
		store := NewRedisStore(kv, cfg.KeyPrefix, []byte(cfg.Secret))
		store.Options = Options(cfg, secure)
		store.MaxAge(store.Options.MaxAge)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
