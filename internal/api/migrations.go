package api

import (
	"net/http"
	"strconv"

	"shuttle/internal/errs"
	"shuttle/internal/logsink"
)

// initiateMigrationRequest may omit the source; it then defaults to the
// server currently hosting the process.
type initiateMigrationRequest struct {
	ProcessID      string `json:"process_id" validate:"required"`
	SourceServerID string `json:"source_server_id"`
	TargetServerID string `json:"target_server_id" validate:"required"`
}

func (api *Server) handleListMigrations(w http.ResponseWriter, r *http.Request) {
	migrations, err := api.Coordinator.ListMigrations()
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, migrations)
}

func (api *Server) handleGetMigration(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	m, err := api.Coordinator.GetMigration(id)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (api *Server) handleInitiateMigration(w http.ResponseWriter, r *http.Request) {
	var req initiateMigrationRequest
	if err := api.decode(r, &req); err != nil {
		api.writeError(w, r, err)
		return
	}

	if req.SourceServerID == "" {
		p, err := api.Coordinator.GetProcess(req.ProcessID)
		if err != nil {
			if errs.IsNotFound(err) {
				err = errs.Validation("process %s does not exist", req.ProcessID)
			}
			api.writeError(w, r, err)
			return
		}
		if p.ServerID == nil {
			api.writeError(w, r, errs.Validation("process %s is not assigned to a server", req.ProcessID))
			return
		}
		req.SourceServerID = *p.ServerID
	}

	m, err := api.Coordinator.Initiate(req.ProcessID, req.SourceServerID, req.TargetServerID)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (api *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	limit := logsink.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			api.writeError(w, r, errs.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, api.Coordinator.Logs(limit))
}

func (api *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	api.Coordinator.ClearLogs()
	w.WriteHeader(http.StatusNoContent)
}
