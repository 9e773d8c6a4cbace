// Package notify owns the chat-channel boundary: formatting canonical
// listings into Slack attachments and posting them.
package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"homescout/config"
)

// Message is one notifier call. ThreadTS, when set, threads the message
// under a previously returned message timestamp.
type Message struct {
	Text        string
	Attachments []slack.Attachment
	ThreadTS    string
}

// Notifier posts a message and returns its timestamp, usable as a thread
// parent for a follow-up.
type Notifier interface {
	Post(ctx context.Context, msg Message) (string, error)
}

type SlackNotifier struct {
	client    *slack.Client
	channelID string
	username  string
	iconURL   string
}

// NewSlackNotifier resolves the configured channel name to its ID up front
// so a bad channel fails at startup, not mid-run.
func NewSlackNotifier(ctx context.Context, cfg config.SlackConfig, httpClient *http.Client) (*SlackNotifier, error) {
	client := slack.New(cfg.Token, slack.OptionHTTPClient(httpClient))

	channelID, err := findChannel(ctx, client, cfg.Channel)
	if err != nil {
		return nil, err
	}

	return &SlackNotifier{
		client:    client,
		channelID: channelID,
		username:  cfg.Username,
		iconURL:   cfg.IconURL,
	}, nil
}

func findChannel(ctx context.Context, client *slack.Client, name string) (string, error) {
	params := &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           200,
	}

	for {
		channels, cursor, err := client.GetConversationsContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("list conversations: %w", err)
		}
		for _, ch := range channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}
		if cursor == "" {
			return "", fmt.Errorf("channel not found: %s", name)
		}
		params.Cursor = cursor
	}
}

func (n *SlackNotifier) Post(ctx context.Context, msg Message) (string, error) {
	opts := []slack.MsgOption{
		slack.MsgOptionAsUser(false),
		slack.MsgOptionUsername(n.username),
		slack.MsgOptionEnableLinkUnfurl(),
	}
	if n.iconURL != "" {
		opts = append(opts, slack.MsgOptionIconURL(n.iconURL))
	}
	if msg.Text != "" {
		opts = append(opts, slack.MsgOptionText(msg.Text, false))
	}
	if len(msg.Attachments) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(msg.Attachments...))
	}
	if msg.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(msg.ThreadTS))
	}

	_, ts, err := n.client.PostMessageContext(ctx, n.channelID, opts...)
	if err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}
	return ts, nil
}
