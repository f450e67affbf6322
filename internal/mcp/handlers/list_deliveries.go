package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/courier/internal/journal"
)

// DeliveryLister reads the delivery journal. Satisfied by
// journal.Journal.
type DeliveryLister interface {
	Recent(limit int) ([]journal.Delivery, error)
}

// ListDeliveries returns a handler that lists recent delivery
// attempts. jl may be nil when the journal is disabled.
func ListDeliveries(jl DeliveryLister) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if jl == nil {
			return mcp.NewToolResultText("The delivery journal is disabled. Enable it with journal.enabled in the courier config."), nil
		}

		limit := 20
		if v, ok := req.GetArguments()["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}

		deliveries, err := jl.Recent(limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reading journal: %v", err)), nil
		}
		if len(deliveries) == 0 {
			return mcp.NewToolResultText("No recorded deliveries."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Deliveries (%d found)\n\n", len(deliveries))

		for _, d := range deliveries {
			icon := "✅"
			if !d.Delivered {
				icon = "❌"
			}
			fmt.Fprintf(&sb, "%s %s [%s/%s] — %q\n", icon, d.CreatedAt.Format("2006-01-02 15:04:05"), d.Channel, d.Mode, d.Title)
			if d.SessionID != "" {
				fmt.Fprintf(&sb, "  Session: %s\n", d.SessionID)
			}
			if d.Error != "" {
				fmt.Fprintf(&sb, "  Error: %s\n", d.Error)
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
