package agent

type StartRequest struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type ProcessResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProcessState is the paused process as it travels between agents. Data is
// opaque to everyone but the agents.
type ProcessState struct {
	ID     string `json:"id"`
	Data   []byte `json:"data"`
	Status string `json:"status"`
}

type ResumeRequest struct {
	Data []byte `json:"data"`
}

type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

type HealthResponse struct {
	Status       string  `json:"status"`
	ServerName   string  `json:"server_name"`
	ProcessCount int     `json:"process_count"`
	CPUPercent   float64 `json:"cpu_percent"`
	MemoryUsed   uint64  `json:"memory_used"`
	MemoryTotal  uint64  `json:"memory_total"`
}
