// Package hook parses and routes Claude Code hook events: the one
// JSON object each hook invocation delivers on stdin.
package hook

import (
	"encoding/json"
	"fmt"
)

// PlaceholderSession is recorded when an activity event carries no
// session id.
const PlaceholderSession = "unknown"

// Kind classifies a hook event.
type Kind int

const (
	// KindIgnored is a payload matching no recognized shape. Unknown
	// future hook shapes must not crash the relay, so these are no-ops.
	KindIgnored Kind = iota
	// KindActivity marks tool-use and lifecycle hooks.
	KindActivity
	// KindNotification asks for a notification to be delivered.
	KindNotification
)

// lifecycle hook names that count as session activity.
var activityHooks = map[string]bool{
	"PreToolUse":   true,
	"PostToolUse":  true,
	"Stop":         true,
	"SubagentStop": true,
}

// Event is the superset of hook payload fields courier recognizes.
// Unrecognized fields are ignored.
type Event struct {
	SessionID     string `json:"session_id"`
	ToolName      string `json:"tool_name"`
	HookEventName string `json:"hook_event_name"`
	// StopHookActive is a presence marker: Stop hooks carry it with
	// either value, so only nil vs non-nil matters.
	StopHookActive *bool  `json:"stop_hook_active"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

// Parse decodes a raw hook payload. Malformed JSON is the only input
// the relay treats as a hard error.
func Parse(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("invalid hook input: %w", err)
	}
	return &e, nil
}

// Classify decides what to do with the event. Activity markers win
// over a message field when a payload somehow carries both: activity
// hooks never notify.
func (e *Event) Classify() Kind {
	if e.ToolName != "" || e.StopHookActive != nil || activityHooks[e.HookEventName] {
		return KindActivity
	}
	if e.Message != "" {
		return KindNotification
	}
	return KindIgnored
}
