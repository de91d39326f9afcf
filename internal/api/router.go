// Package api is the HTTP command gateway. It parses requests into
// coordinator calls and serializes the results; it holds no state of its
// own.
package api

import (
	"net/http"
	"time"

	"shuttle/internal/app"
	"shuttle/internal/coordinator"
	"shuttle/internal/ws"

	"go.uber.org/zap"
)

type Server struct {
	Coordinator *coordinator.Coordinator
	Hub         *ws.Hub

	validator *requestValidator
	log       *zap.Logger
	now       func() time.Time
}

func NewAPIServer(container *app.Container) *Server {
	log := container.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Coordinator: container.Coordinator,
		Hub:         container.Hub,
		validator:   newRequestValidator(),
		log:         log.Named("api"),
		now:         time.Now,
	}
}

func (api *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/overview", api.handleOverview)
	mux.HandleFunc("GET /api/health", api.handleHealth)

	mux.HandleFunc("GET /api/servers", api.handleListServers)
	mux.HandleFunc("POST /api/servers", api.handleCreateServer)
	mux.HandleFunc("GET /api/servers/{id}", api.handleGetServer)
	mux.HandleFunc("PATCH /api/servers/{id}", api.handleUpdateServer)
	mux.HandleFunc("DELETE /api/servers/{id}", api.handleDeleteServer)

	mux.HandleFunc("GET /api/processes", api.handleListProcesses)
	mux.HandleFunc("POST /api/processes", api.handleCreateProcess)
	mux.HandleFunc("GET /api/processes/{id}", api.handleGetProcess)
	mux.HandleFunc("PATCH /api/processes/{id}", api.handleUpdateProcess)
	mux.HandleFunc("DELETE /api/processes/{id}", api.handleDeleteProcess)

	mux.HandleFunc("GET /api/migrations", api.handleListMigrations)
	mux.HandleFunc("POST /api/migrations", api.handleInitiateMigration)
	mux.HandleFunc("GET /api/migrations/{id}", api.handleGetMigration)

	mux.HandleFunc("GET /api/logs", api.handleListLogs)
	mux.HandleFunc("DELETE /api/logs", api.handleClearLogs)

	if api.Hub != nil {
		mux.HandleFunc("GET /ws/logs", api.Hub.ServeWs)
	}

	mux.HandleFunc("/", notFoundRoute)

	return api.corsMiddleware(api.logMiddleware(mux))
}

func (api *Server) Start(listenAddr string) error {
	api.log.Info("API listening", zap.String("addr", listenAddr))
	return http.ListenAndServe(listenAddr, api.Handler())
}

func (api *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": api.now().UTC().Format(time.RFC3339Nano),
	})
}

func (api *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := api.Coordinator.Overview()
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}
