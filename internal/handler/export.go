package handler

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// ExportHandler streams the raw SQLite database file to the authenticated
// owner as a download.
type ExportHandler struct {
	db     *sql.DB
	dbPath string
	logger *slog.Logger
}

func NewExportHandler(db *sql.DB, dbPath string, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{db: db, dbPath: dbPath, logger: logger}
}

// Download checkpoints the WAL so the main file is current, then serves it
// with attachment headers and an exact content length.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.ExecContext(r.Context(), "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		h.logger.Error("wal checkpoint", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to export database"})
		return
	}

	f, err := os.Open(h.dbPath)
	if err != nil {
		h.logger.Error("open database file", "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Database file not found"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("stat database file", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to export database"})
		return
	}

	filename := fmt.Sprintf("memo_notepad_backup_%s.db", time.Now().UTC().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))

	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("stream database file", "error", err)
	}
}
