package api

import (
	"net/http"

	"shuttle/internal/coordinator"
	"shuttle/internal/domain"
)

type createProcessRequest struct {
	ID        string  `json:"id" validate:"required,max=128"`
	Type      string  `json:"type" validate:"required,max=128"`
	Status    string  `json:"status" validate:"omitempty,oneof=running paused stopped"`
	ServerID  *string `json:"server_id"`
	StateData *string `json:"state_data"`
}

// updateProcessRequest treats null and absent alike. server_id "" unassigns.
type updateProcessRequest struct {
	Type      *string `json:"type" validate:"omitempty,min=1,max=128"`
	Status    *string `json:"status" validate:"omitempty,oneof=running paused stopped"`
	ServerID  *string `json:"server_id"`
	StateData *string `json:"state_data"`
}

func (api *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := api.Coordinator.ListProcesses()
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processes)
}

func (api *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	p, err := api.Coordinator.GetProcess(id)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (api *Server) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	var req createProcessRequest
	if err := api.decode(r, &req); err != nil {
		api.writeError(w, r, err)
		return
	}
	p, err := api.Coordinator.CreateProcess(r.Context(), coordinator.ProcessSpec{
		ID:        req.ID,
		Type:      req.Type,
		Status:    domain.ProcessStatus(req.Status),
		ServerID:  req.ServerID,
		StateData: req.StateData,
	})
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (api *Server) handleUpdateProcess(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	var req updateProcessRequest
	if err := api.decode(r, &req); err != nil {
		api.writeError(w, r, err)
		return
	}

	upd := coordinator.ProcessUpdate{Type: req.Type, ServerID: req.ServerID, StateData: req.StateData}
	if req.Status != nil {
		status := domain.ProcessStatus(*req.Status)
		upd.Status = &status
	}
	p, err := api.Coordinator.UpdateProcess(id, upd)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (api *Server) handleDeleteProcess(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	if err := api.Coordinator.DeleteProcess(id); err != nil {
		api.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
