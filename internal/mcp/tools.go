package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/courier/internal/mcp/handlers"
)

func registerTools(s *server.MCPServer, deps *Deps) {
	// send_notification — deliver through the configured channels
	s.AddTool(
		mcp.NewTool("send_notification",
			mcp.WithDescription("Send a notification through the configured channels. Delayed channels are scheduled and self-cancel if the session shows activity before the delay elapses."),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("The notification body"),
			),
			mcp.WithString("title",
				mcp.Description("Notification title (default: Claude Code)"),
			),
			mcp.WithString("session_id",
				mcp.Description("Session id used for delayed-delivery cancellation"),
			),
		),
		handlers.SendNotification(deps.Dispatcher),
	)

	// list_deliveries — inspect the delivery journal
	s.AddTool(
		mcp.NewTool("list_deliveries",
			mcp.WithDescription("List recent delivery attempts from the journal, newest first."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of entries to return (default: 20)"),
			),
		),
		handlers.ListDeliveries(deps.Journal),
	)
}
