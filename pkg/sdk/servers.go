package sdk

import "net/url"

func (c *Client) Overview() (*Overview, error) {
	var ov Overview
	err := c.get("/api/overview", &ov)
	return &ov, err
}

func (c *Client) Health() (*Health, error) {
	var h Health
	err := c.get("/api/health", &h)
	return &h, err
}

func (c *Client) ListServers() ([]Server, error) {
	var servers []Server
	err := c.get("/api/servers", &servers)
	return servers, err
}

func (c *Client) GetServer(id string) (*Server, error) {
	var server Server
	err := c.get("/api/servers/"+url.PathEscape(id), &server)
	return &server, err
}

func (c *Client) CreateServer(req CreateServerRequest) (*Server, error) {
	var server Server
	err := c.post("/api/servers", req, &server)
	return &server, err
}

func (c *Client) UpdateServer(id string, req UpdateServerRequest) (*Server, error) {
	var server Server
	err := c.patch("/api/servers/"+url.PathEscape(id), req, &server)
	return &server, err
}

func (c *Client) DeleteServer(id string) error {
	return c.delete("/api/servers/" + url.PathEscape(id))
}
