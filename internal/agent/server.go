// Package agent is the process host that runs on every server. The
// coordinator drives it to start, pause and resume processes; paused state
// is handed back as opaque bytes.
package agent

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	statusRunning = "running"
	statusPaused  = "paused"
)

type hostedProcess struct {
	status    string
	typ       string
	startedAt time.Time
	data      map[string]any
}

type Server struct {
	Name      string
	Host      string
	Port      int
	processes map[string]*hostedProcess
	sample    Sampler
	log       *zap.Logger
	mu        sync.Mutex
}

func NewServer(name, host string, port int, sample Sampler, log *zap.Logger) *Server {
	if sample == nil {
		sample = HostSampler
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Name:      name,
		Host:      host,
		Port:      port,
		processes: make(map[string]*hostedProcess),
		sample:    sample,
		log:       log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /processes", s.handleStart)
	mux.HandleFunc("GET /processes/{id}", s.handleStatus)
	mux.HandleFunc("DELETE /processes/{id}", s.handleForget)
	mux.HandleFunc("POST /processes/{id}/pause", s.handlePause)
	mux.HandleFunc("POST /processes/{id}/resume", s.handleResume)
	return mux
}

func (s *Server) Start(listenAddr string) error {
	s.log.Info("agent listening", zap.String("server", s.Name), zap.String("addr", listenAddr))
	return http.ListenAndServe(listenAddr, s.Handler())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "invalid start request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.processes[req.ID]; exists {
		http.Error(w, "process already exists", http.StatusConflict)
		return
	}
	s.processes[req.ID] = &hostedProcess{
		status:    statusRunning,
		typ:       req.Type,
		startedAt: time.Now(),
		data:      map[string]any{"type": req.Type, "progress": 0, "state": "initialized"},
	}
	s.log.Info("process started", zap.String("process", req.ID), zap.String("type", req.Type))

	writeJSON(w, http.StatusCreated, ProcessResponse{
		ID:      req.ID,
		Status:  "started",
		Message: fmt.Sprintf("Process %s started successfully", req.ID),
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	proc, ok := s.processes[id]
	if !ok {
		http.Error(w, fmt.Sprintf("process %s not found", id), http.StatusNotFound)
		return
	}
	if proc.status != statusRunning {
		http.Error(w, fmt.Sprintf("process %s is not running", id), http.StatusConflict)
		return
	}

	proc.status = statusPaused
	proc.data["pause_time"] = time.Now().Unix()
	data, err := json.Marshal(proc.data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("process paused", zap.String("process", id), zap.Int("state_bytes", len(data)))

	writeJSON(w, http.StatusOK, ProcessState{ID: id, Data: data, Status: statusPaused})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid resume request", http.StatusBadRequest)
		return
	}
	state := make(map[string]any)
	if err := json.Unmarshal(req.Data, &state); err != nil {
		http.Error(w, fmt.Sprintf("failed to deserialize state: %v", err), http.StatusBadRequest)
		return
	}
	typ, _ := state["type"].(string)
	if typ == "" {
		typ = "unknown"
	}

	s.mu.Lock()
	s.processes[id] = &hostedProcess{
		status:    statusRunning,
		typ:       typ,
		startedAt: time.Now(),
		data:      state,
	}
	s.mu.Unlock()
	s.log.Info("process resumed", zap.String("process", id))

	writeJSON(w, http.StatusOK, ProcessResponse{
		ID:      id,
		Status:  "resumed",
		Message: fmt.Sprintf("Process %s resumed successfully", id),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	proc, ok := s.processes[id]
	var status string
	if ok {
		status = proc.status
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, fmt.Sprintf("process %s not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{ID: id, Status: status, Host: s.Host, Port: s.Port})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	_, ok := s.processes[id]
	delete(s.processes, id)
	s.mu.Unlock()

	if !ok {
		http.Error(w, fmt.Sprintf("process %s not found", id), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running := 0
	for _, p := range s.processes {
		if p.status == statusRunning {
			running++
		}
	}
	s.mu.Unlock()

	resp := HealthResponse{
		Status:       "healthy",
		ServerName:   s.Name,
		ProcessCount: running,
	}
	if stats, err := s.sample(); err != nil {
		s.log.Warn("host sampling failed", zap.Error(err))
	} else {
		resp.CPUPercent = stats.CPUPercent
		resp.MemoryUsed = stats.MemoryUsed
		resp.MemoryTotal = stats.MemoryTotal
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
