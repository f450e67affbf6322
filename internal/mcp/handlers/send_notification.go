package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Dispatcher runs the shared notification path. Defined consumer-side;
// satisfied by hook.Router.
type Dispatcher interface {
	Notify(ctx context.Context, title, message, sessionID string)
}

// SendNotification returns a handler that dispatches a notification
// through the configured channels.
func SendNotification(d Dispatcher) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		message, _ := args["message"].(string)
		if message == "" {
			return mcp.NewToolResultError("message is required"), nil
		}

		title, _ := args["title"].(string)
		if title == "" {
			title = "Claude Code"
		}
		sessionID, _ := args["session_id"].(string)

		d.Notify(ctx, title, message, sessionID)

		return mcp.NewToolResultText("Notification dispatched. Delayed channels fire only if the session stays idle."), nil
	}
}
