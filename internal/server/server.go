// Package server wires stores, the backup service, and handlers into one
// http.Handler.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tristate/fleetdesk/internal/auth"
	"github.com/tristate/fleetdesk/internal/backup"
	"github.com/tristate/fleetdesk/internal/handler"
	"github.com/tristate/fleetdesk/internal/middleware"
	"github.com/tristate/fleetdesk/internal/store"
	ws "github.com/tristate/fleetdesk/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	vehicleH      *handler.VehicleHandler
	agreementH    *handler.AgreementHandler
	backupH       *handler.BackupHandler
	authH         *handler.AuthHandler
	userStore     *store.UserStore
	sessionStore  *store.SessionStore
	rateLimiter   *middleware.RateLimiter
	backupService *backup.Service
	logger        *slog.Logger
}

func New(db *sql.DB, storage *backup.Storage, replicator *backup.Replicator, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	vehicleStore := store.NewVehicleStore(db)
	agreementStore := store.NewAgreementStore(db)
	backupStore := store.NewBackupMetadataStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	backupSvc := backup.NewService(storage, vehicleStore, agreementStore, backupStore, replicator, func(event string, extra map[string]any) {
		hub.Broadcast(ws.Message{
			Type:   event,
			Entity: "backup",
			Action: event,
			Extra:  extra,
		})
	}, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		vehicleH:      handler.NewVehicleHandler(vehicleStore, hub, logger.With("component", "vehicle")),
		agreementH:    handler.NewAgreementHandler(agreementStore, backupSvc, hub, logger.With("component", "agreement")),
		backupH:       handler.NewBackupHandler(backupSvc, logger.With("component", "backup_api")),
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		userStore:     userStore,
		sessionStore:  sessionStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupService: backupSvc,
		logger:        logger,
	}
}

// BackupService exposes the service for the cron scheduler.
func (s *Server) BackupService() *backup.Service {
	return s.backupService
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Vehicle API routes
	mux.HandleFunc("POST /api/vehicles", s.vehicleH.Create)
	mux.HandleFunc("GET /api/vehicles", s.vehicleH.List)
	mux.HandleFunc("GET /api/vehicles/{id}", s.vehicleH.Get)
	mux.HandleFunc("PUT /api/vehicles/{id}", s.vehicleH.Update)
	mux.HandleFunc("DELETE /api/vehicles/{id}", s.vehicleH.Delete)

	// Agreement API routes
	mux.HandleFunc("POST /api/agreements", s.agreementH.Create)
	mux.HandleFunc("GET /api/agreements", s.agreementH.List)
	mux.HandleFunc("GET /api/agreements/{id}", s.agreementH.Get)
	mux.HandleFunc("PUT /api/agreements/{id}", s.agreementH.UpdateStatus)
	mux.HandleFunc("GET /api/agreements/{id}/pdf", s.agreementH.DownloadPDF)

	// Backup API routes
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/export/vehicles", s.backupH.ExportVehicles)
	mux.HandleFunc("POST /api/backup/database", s.backupH.DatabaseBackup)

	// Session-gated routes
	requireAuth := middleware.RequireAuth(s.sessionStore, s.userStore)
	mux.Handle("GET /api/me", requireAuth(http.HandlerFunc(s.meHandler)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil || user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
