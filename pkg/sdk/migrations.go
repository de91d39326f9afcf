package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

func (c *Client) ListMigrations() ([]MigrationWithDetails, error) {
	var migrations []MigrationWithDetails
	err := c.get("/api/migrations", &migrations)
	return migrations, err
}

func (c *Client) GetMigration(id string) (*MigrationWithDetails, error) {
	var m MigrationWithDetails
	err := c.get("/api/migrations/"+url.PathEscape(id), &m)
	return &m, err
}

func (c *Client) InitiateMigration(req InitiateMigrationRequest) (*Migration, error) {
	var m Migration
	err := c.post("/api/migrations", req, &m)
	return &m, err
}

// Logs returns up to limit entries, newest first. limit <= 0 uses the
// gateway default.
func (c *Client) Logs(limit int) ([]LogEntry, error) {
	path := "/api/logs"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var logs []LogEntry
	err := c.get(path, &logs)
	return logs, err
}

func (c *Client) ClearLogs() error {
	return c.delete("/api/logs")
}

// FollowLogs streams log entries from the gateway websocket until ctx is
// done or the connection drops. Retained history arrives first, oldest
// first.
func (c *Client) FollowLogs(ctx context.Context, fn func(LogEntry)) error {
	wsURL, err := c.GetWebSocketURL("/ws/logs")
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var entry LogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		fn(entry)
	}
}
