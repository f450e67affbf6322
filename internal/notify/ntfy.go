package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kolapsis/courier/internal/config"
)

const (
	defaultNtfyServer = "https://ntfy.sh"
	defaultNtfyTopic  = "claude-code-notifications"

	ntfyTimeout = 10 * time.Second
)

// Ntfy pushes a notification to a topic on an ntfy server with a
// single HTTP POST. No retry: a failed attempt is reported and
// dropped, per the best-effort contract.
type Ntfy struct {
	client   *http.Client
	server   string
	topic    string
	priority string
	tags     string
	token    string
}

// NewNtfy creates an Ntfy channel from tier settings.
// Recognized keys: "server", "topic", "priority", "tags", "token".
func NewNtfy(tc config.TierConfig) *Ntfy {
	n := &Ntfy{
		client:   &http.Client{Timeout: ntfyTimeout},
		server:   defaultNtfyServer,
		topic:    defaultNtfyTopic,
		priority: "default",
	}
	if v := tc["server"]; v != "" {
		n.server = strings.TrimSuffix(v, "/")
	}
	if v := tc["topic"]; v != "" {
		n.topic = v
	}
	if v := tc["priority"]; v != "" {
		n.priority = v
	}
	n.tags = tc["tags"]
	n.token = tc["token"]
	return n
}

// Name implements Notifier.
func (n *Ntfy) Name() string { return config.ChannelNtfy }

// Available reports whether a server and topic are configured.
func (n *Ntfy) Available() bool {
	return n.server != "" && n.topic != ""
}

// Deliver implements Notifier. The message is the request body; title,
// priority and tags travel as headers per the ntfy publish contract.
func (n *Ntfy) Deliver(ctx context.Context, title, message string) error {
	url := n.server + "/" + n.topic

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("building ntfy request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", n.priority)
	if n.tags != "" {
		req.Header.Set("Tags", n.tags)
	}
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to ntfy: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ntfy returned %s", resp.Status)
	}

	return nil
}
