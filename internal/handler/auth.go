package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/memopad/internal/store"
)

const (
	sessionCookieName = "memopad_session"
	sessionMaxAge     = 90 * 24 * 60 * 60 // seconds, matches the store's TTL
	secretKeyLength   = 32
)

// AuthHandler owns login, logout, and first-run bootstrap.
type AuthHandler struct {
	userStore       *store.UserStore
	sessionStore    *store.SessionStore
	defaultTimezone string
	logger          *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, defaultTimezone string, logger *slog.Logger) *AuthHandler {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &AuthHandler{
		userStore:       us,
		sessionStore:    ss,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// validSecretKeyFormat reports whether the key is exactly 32 hex characters.
// Malformed keys are rejected before any store lookup.
func validSecretKeyFormat(key string) bool {
	if len(key) != secretKeyLength {
		return false
	}
	for _, c := range key {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

type loginRequest struct {
	SecretKey string `json:"secret_key"`
}

// Login authenticates a secret key and establishes a session cookie. Wrong
// length, non-hex characters, and no matching user all produce the same
// response, so nothing about the reason leaks to the caller.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	key := strings.TrimSpace(req.SecretKey)
	if !validSecretKeyFormat(key) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid secret key"})
		return
	}

	user, err := h.userStore.Authenticate(key)
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid secret key"})
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	h.setSessionCookie(w, r, sess.Token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged in successfully"})
}

// Bootstrap provisions the first user when none exist, logs it in, and
// returns the generated secret key, the only time it is ever shown. Once a
// user exists the endpoint is a no-op, so the front end may call it on every
// unauthenticated page load.
func (h *AuthHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	count, err := h.userStore.Count()
	if err != nil {
		h.logger.Error("count users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	if count > 0 {
		writeJSON(w, http.StatusOK, map[string]any{"created": false})
		return
	}

	user, err := h.userStore.Create(h.defaultTimezone)
	if err != nil {
		h.logger.Error("bootstrap user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("bootstrap session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	h.setSessionCookie(w, r, sess.Token)
	h.logger.Info("first user provisioned", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"created":    true,
		"secret_key": user.SecretKey,
		"message":    "Welcome! Your secret key has been generated. Please save it securely.",
	})
}

// Logout destroys the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessionStore.GetByToken(cookie.Value); err == nil && sess != nil {
			h.sessionStore.Delete(sess.ID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}
