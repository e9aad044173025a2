package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/memopad/internal/auth"
	"github.com/dukerupert/memopad/internal/model"
	"github.com/dukerupert/memopad/internal/store"
	"github.com/dukerupert/memopad/internal/websocket"
)

// timestampFormat is how the API renders memo timestamps, in the owner's
// preferred timezone.
const timestampFormat = "2006-01-02 15:04:05"

var memoPathRe = regexp.MustCompile(`^memo/(\d+)$`)

// APIHandler dispatches /api requests. The front end addresses resources
// through the `path` query parameter (`memos`, `memo/{id}`, `search`), a
// contract carried over from the app this service replaces.
type APIHandler struct {
	memoStore *store.MemoStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewAPIHandler(ms *store.MemoStore, hub *websocket.Hub, logger *slog.Logger) *APIHandler {
	return &APIHandler{memoStore: ms, hub: hub, logger: logger}
}

func (h *APIHandler) broadcast(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

// memoJSON is the wire form of a memo, timestamps rendered in the owner's
// timezone.
type memoJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func renderMemo(m *model.Memo, loc *time.Location) memoJSON {
	return memoJSON{
		ID:        m.ID,
		Title:     m.Title,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.In(loc).Format(timestampFormat),
		UpdatedAt: m.UpdatedAt.In(loc).Format(timestampFormat),
	}
}

func renderMemos(memos []model.Memo, loc *time.Location) []memoJSON {
	out := make([]memoJSON, 0, len(memos))
	for i := range memos {
		out = append(out, renderMemo(&memos[i], loc))
	}
	return out
}

// userLocation resolves the authenticated user's timezone, falling back to
// UTC for labels that no longer load.
func userLocation(r *http.Request) *time.Location {
	loc, err := time.LoadLocation(auth.Timezone(r.Context()))
	if err != nil {
		return time.UTC
	}
	return loc
}

type memoRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Dispatch routes an /api request by method and the `path` query parameter.
// The owner id comes from the authenticated context only; nothing in the
// request can select another user's rows.
func (h *APIHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	path := r.URL.Query().Get("path")

	switch r.Method {
	case http.MethodGet:
		h.dispatchGet(w, r, ac.UserID, path)
	case http.MethodPost:
		if path == "memo" {
			h.create(w, r, ac.UserID)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Invalid endpoint"})
	case http.MethodPut:
		if m := memoPathRe.FindStringSubmatch(path); m != nil {
			id, _ := strconv.ParseInt(m[1], 10, 64)
			h.update(w, r, ac.UserID, id)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Invalid endpoint"})
	case http.MethodDelete:
		if m := memoPathRe.FindStringSubmatch(path); m != nil {
			id, _ := strconv.ParseInt(m[1], 10, 64)
			h.delete(w, r, ac.UserID, id)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Invalid endpoint"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

func (h *APIHandler) dispatchGet(w http.ResponseWriter, r *http.Request, userID int64, path string) {
	switch {
	case path == "memos":
		h.list(w, r, userID)
	case path == "search":
		h.search(w, r, userID)
	default:
		if m := memoPathRe.FindStringSubmatch(path); m != nil {
			id, _ := strconv.ParseInt(m[1], 10, 64)
			h.get(w, r, userID, id)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Invalid endpoint"})
	}
}

func (h *APIHandler) list(w http.ResponseWriter, r *http.Request, userID int64) {
	memos, err := h.memoStore.ListByUser(userID)
	if err != nil {
		h.logger.Error("list memos", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list memos"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memos": renderMemos(memos, userLocation(r))})
}

func (h *APIHandler) get(w http.ResponseWriter, r *http.Request, userID, id int64) {
	memo, err := h.memoStore.Get(id, userID)
	if err != nil {
		h.logger.Error("get memo", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get memo"})
		return
	}
	if memo == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Memo not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memo": renderMemo(memo, userLocation(r))})
}

func (h *APIHandler) search(w http.ResponseWriter, r *http.Request, userID int64) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Search query required"})
		return
	}

	memos, err := h.memoStore.Search(userID, query)
	if err != nil {
		h.logger.Error("search memos", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to search memos"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memos": renderMemos(memos, userLocation(r))})
}

func (h *APIHandler) create(w http.ResponseWriter, r *http.Request, userID int64) {
	req, ok := decodeMemoRequest(w, r)
	if !ok {
		return
	}

	memo, err := h.memoStore.Create(userID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("create memo", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create memo"})
		return
	}

	h.broadcast(websocket.MemoEvent("created", memo.ID))

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      memo.ID,
		"message": "Memo created successfully",
	})
}

func (h *APIHandler) update(w http.ResponseWriter, r *http.Request, userID, id int64) {
	req, ok := decodeMemoRequest(w, r)
	if !ok {
		return
	}

	memo, err := h.memoStore.Update(id, userID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("update memo", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update memo"})
		return
	}
	if memo == nil {
		// Absent and not-owned are the same case on purpose
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Failed to update memo or memo not found"})
		return
	}

	h.broadcast(websocket.MemoEvent("updated", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Memo updated successfully"})
}

func (h *APIHandler) delete(w http.ResponseWriter, r *http.Request, userID, id int64) {
	deleted, err := h.memoStore.Delete(id, userID)
	if err != nil {
		h.logger.Error("delete memo", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete memo"})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Failed to delete memo or memo not found"})
		return
	}

	h.broadcast(websocket.MemoEvent("deleted", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Memo deleted successfully"})
}

// decodeMemoRequest parses and validates a create/update body. Title and
// content must both be non-empty after trimming.
func decodeMemoRequest(w http.ResponseWriter, r *http.Request) (memoRequest, bool) {
	var req memoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return req, false
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title and content are required"})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
