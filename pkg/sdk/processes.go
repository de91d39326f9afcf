package sdk

import "net/url"

func (c *Client) ListProcesses() ([]ProcessWithServer, error) {
	var processes []ProcessWithServer
	err := c.get("/api/processes", &processes)
	return processes, err
}

func (c *Client) GetProcess(id string) (*ProcessWithServer, error) {
	var p ProcessWithServer
	err := c.get("/api/processes/"+url.PathEscape(id), &p)
	return &p, err
}

func (c *Client) CreateProcess(req CreateProcessRequest) (*Process, error) {
	var p Process
	err := c.post("/api/processes", req, &p)
	return &p, err
}

func (c *Client) UpdateProcess(id string, req UpdateProcessRequest) (*Process, error) {
	var p Process
	err := c.patch("/api/processes/"+url.PathEscape(id), req, &p)
	return &p, err
}

func (c *Client) DeleteProcess(id string) error {
	return c.delete("/api/processes/" + url.PathEscape(id))
}
