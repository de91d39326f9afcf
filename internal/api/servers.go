package api

import (
	"net/http"

	"shuttle/internal/coordinator"
	"shuttle/internal/domain"
)

type createServerRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Host        string `json:"host" validate:"max=253"`
	Port        int    `json:"port" validate:"min=0,max=65535"`
	Status      string `json:"status" validate:"omitempty,oneof=online offline migrating"`
	Role        string `json:"role" validate:"omitempty,oneof=primary secondary"`
	CPUUsage    int    `json:"cpu_usage" validate:"min=0,max=100"`
	MemoryUsage string `json:"memory_usage" validate:"max=32"`
}

// updateServerRequest has no process_count: the counter is owned by the
// coordinator and the decoder rejects unknown fields.
type updateServerRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=64"`
	Host        *string `json:"host" validate:"omitempty,max=253"`
	Port        *int    `json:"port" validate:"omitempty,min=0,max=65535"`
	Status      *string `json:"status" validate:"omitempty,oneof=online offline migrating"`
	Role        *string `json:"role" validate:"omitempty,oneof=primary secondary"`
	CPUUsage    *int    `json:"cpu_usage" validate:"omitempty,min=0,max=100"`
	MemoryUsage *string `json:"memory_usage" validate:"omitempty,max=32"`
}

func (api *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := api.Coordinator.ListServers()
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, servers)
}

func (api *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	srv, err := api.Coordinator.GetServer(id)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, srv)
}

func (api *Server) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req createServerRequest
	if err := api.decode(r, &req); err != nil {
		api.writeError(w, r, err)
		return
	}
	srv, err := api.Coordinator.CreateServer(coordinator.ServerSpec{
		Name:        req.Name,
		Host:        req.Host,
		Port:        req.Port,
		Status:      domain.ServerStatus(req.Status),
		Role:        domain.ServerRole(req.Role),
		CPUUsage:    req.CPUUsage,
		MemoryUsage: req.MemoryUsage,
	})
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, srv)
}

func (api *Server) handleUpdateServer(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	var req updateServerRequest
	if err := api.decode(r, &req); err != nil {
		api.writeError(w, r, err)
		return
	}

	patch := domain.ServerPatch{
		Name:        req.Name,
		Host:        req.Host,
		Port:        req.Port,
		CPUUsage:    req.CPUUsage,
		MemoryUsage: req.MemoryUsage,
	}
	if req.Status != nil {
		status := domain.ServerStatus(*req.Status)
		patch.Status = &status
	}
	if req.Role != nil {
		role := domain.ServerRole(*req.Role)
		patch.Role = &role
	}

	srv, err := api.Coordinator.UpdateServer(id, patch)
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, srv)
}

func (api *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	id, err := requirePath(r, "id")
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	if err := api.Coordinator.DeleteServer(id); err != nil {
		api.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
