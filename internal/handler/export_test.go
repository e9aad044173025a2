package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dukerupert/memopad/internal/database"
	"github.com/dukerupert/memopad/internal/store"
)

func TestDatabaseDownload(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memopad.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Some content so the file is non-trivial
	user, err := store.NewUserStore(db).Create("UTC")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.NewMemoStore(db).Create(user.ID, "Keep", "exported"); err != nil {
		t.Fatalf("create memo: %v", err)
	}

	h := NewExportHandler(db, dbPath, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/settings/database/download", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("content type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="memo_notepad_backup_`) {
		t.Errorf("content disposition = %q", cd)
	}

	body := rec.Body.Bytes()
	if !bytes.HasPrefix(body, []byte("SQLite format 3\x00")) {
		t.Error("download is not a SQLite database")
	}

	wantLen, err := strconv.Atoi(rec.Header().Get("Content-Length"))
	if err != nil {
		t.Fatalf("content length header: %v", err)
	}
	if len(body) != wantLen {
		t.Errorf("body is %d bytes, header says %d", len(body), wantLen)
	}
}

func TestDatabaseDownloadMissingFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memopad.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Serve a path that no longer exists
	gone := filepath.Join(t.TempDir(), "gone.db")
	h := NewExportHandler(db, gone, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/settings/database/download", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	// Nothing was written besides the JSON error
	if _, err := os.Stat(gone); !os.IsNotExist(err) {
		t.Errorf("unexpected file at %s", gone)
	}
}
