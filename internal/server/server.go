package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/memopad/internal/backup"
	"github.com/dukerupert/memopad/internal/handler"
	"github.com/dukerupert/memopad/internal/middleware"
	"github.com/dukerupert/memopad/internal/store"
	ws "github.com/dukerupert/memopad/internal/websocket"
)

// Config carries the server-level settings read from the environment.
type Config struct {
	DBPath          string
	DefaultTimezone string
	Backup          backup.Config
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	apiH          *handler.APIHandler
	settingsH     *handler.SettingsHandler
	exportH       *handler.ExportHandler
	backupH       *handler.BackupHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	memoStore := store.NewMemoStore(db)
	sessionStore := store.NewSessionStore(db)
	backupStore := store.NewBackupStore(db)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, cfg.DefaultTimezone, logger.With("component", "auth")),
		apiH:          handler.NewAPIHandler(memoStore, hub, logger.With("component", "api")),
		settingsH:     handler.NewSettingsHandler(userStore, memoStore, sessionStore, cfg.DBPath, logger.With("component", "settings")),
		exportH:       handler.NewExportHandler(db, cfg.DBPath, logger.With("component", "export")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required). Login and bootstrap are rate limited
	// per client IP to slow down secret-key guessing.
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /bootstrap", s.rateLimitedHandler(s.authH.Bootstrap))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires a valid session
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Memo API: a single endpoint dispatching on the `path` query parameter,
	// the contract the front end already speaks
	mux.HandleFunc("/api", s.apiH.Dispatch)

	// Settings
	mux.HandleFunc("GET /settings/stats", s.settingsH.Stats)
	mux.HandleFunc("PUT /settings/timezone", s.settingsH.UpdateTimezone)
	mux.HandleFunc("POST /settings/key/regenerate", s.settingsH.RegenerateKey)
	mux.HandleFunc("GET /settings/database/download", s.exportH.Download)

	// Off-site backups
	mux.HandleFunc("POST /settings/backup/run", s.backupH.Run)
	mux.HandleFunc("GET /settings/backup/status", s.backupH.Status)
	mux.HandleFunc("GET /settings/backup/history", s.backupH.History)

	// Live memo-change events
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))
}
