package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/memopad/internal/backup"
	"github.com/dukerupert/memopad/internal/model"
	"github.com/dukerupert/memopad/internal/store"
)

const backupHistoryLimit = 50

// BackupHandler exposes the off-site backup manager over JSON.
type BackupHandler struct {
	manager *backup.Manager
	store   *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, store: bs, logger: logger}
}

// Run triggers an immediate snapshot.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Backups are not configured"})
		return
	}

	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Backup failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"message": "Backup completed successfully",
	})
}

// Status reports the manager's current state.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// History lists recent backup records, newest first.
func (h *BackupHandler) History(w http.ResponseWriter, r *http.Request) {
	backups, err := h.store.List(backupHistoryLimit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list backups"})
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}
