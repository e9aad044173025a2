package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dukerupert/memopad/internal/auth"
	"github.com/dukerupert/memopad/internal/store"
)

// SettingsHandler serves the account-level operations behind the settings
// page: key regeneration, timezone preference, and account stats.
type SettingsHandler struct {
	userStore    *store.UserStore
	memoStore    *store.MemoStore
	sessionStore *store.SessionStore
	dbPath       string
	logger       *slog.Logger
}

func NewSettingsHandler(us *store.UserStore, ms *store.MemoStore, ss *store.SessionStore, dbPath string, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		userStore:    us,
		memoStore:    ms,
		sessionStore: ss,
		dbPath:       dbPath,
		logger:       logger,
	}
}

// RegenerateKey issues a fresh secret key for the authenticated user. The old
// key stops working immediately, and every other session is revoked so logins
// made with it do not linger.
func (h *SettingsHandler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	key, err := h.userStore.RegenerateKey(ac.UserID)
	if err != nil {
		h.logger.Error("regenerate key", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to regenerate security key"})
		return
	}
	if key == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	if err := h.sessionStore.DeleteOthers(ac.UserID, ac.SessionID); err != nil {
		h.logger.Error("revoke other sessions", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret_key": key,
		"message":    "New security key generated successfully. Please save it securely.",
	})
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

// UpdateTimezone sets the user's preferred timezone after checking it is a
// recognized zone identifier.
func (h *SettingsHandler) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	var req timezoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Timezone is required"})
		return
	}
	if _, err := time.LoadLocation(tz); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid timezone selected"})
		return
	}

	if err := h.userStore.UpdateTimezone(ac.UserID, tz); err != nil {
		h.logger.Error("update timezone", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update timezone"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Timezone updated successfully"})
}

// Stats reports the account info shown on the settings page.
func (h *SettingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		h.logger.Error("stats user lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	count, err := h.memoStore.CountByUser(ac.UserID)
	if err != nil {
		h.logger.Error("stats memo count", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	var dbSize int64
	if info, err := os.Stat(h.dbPath); err == nil {
		dbSize = info.Size()
	}

	loc := userLocation(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"memo_count":          count,
		"database_size_bytes": dbSize,
		"member_since":        user.CreatedAt.In(loc).Format(timestampFormat),
		"timezone":            user.Timezone,
	})
}
