// Package mcp exposes the console as MCP tools.
package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskdesk/internal/console"
	"github.com/rpggio/taskdesk/internal/metrics"
)

const serverInstructions = `taskdesk is a role-scoped console over a project and task API.

Start with login (or register). Call layout to see the views, forms and
actions your role can reach; anything else is refused before a request is
sent. open_view loads a view once, after which set_query filters, sorts and
pages it locally. refresh_view reloads from the server. Deleting is two
steps: request_delete, then confirm_delete (or cancel_delete).

Failed tools return {code, message, recovery_hint}. AUTH_REQUIRED means the
session is gone; sign in again.`

// Config contains server configuration.
type Config struct {
	Console *console.Console
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Version string
}

// NewServer creates an MCP server with every console tool registered.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "taskdesk",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerCapabilities(server, cfg.Console)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	t := &tools{console: cfg.Console, metrics: cfg.Metrics, logger: cfg.Logger}
	t.addAll(server)
	return server
}
