package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/padaemon/padaemon/internal/adapter"
	"github.com/padaemon/padaemon/internal/logging"
)

// Bot is the Slack Adapter implementation, built on Socket Mode so it
// needs no public HTTP endpoint.
type Bot struct {
	cfg    Config
	api    *slack.Client
	client *socketmode.Client
	onMsg  adapter.MessageHandler
	botID  string
	cancel context.CancelFunc
}

// New constructs a Bot. onMsg is invoked for every accepted inbound text
// message.
func New(cfg Config, onMsg adapter.MessageHandler) (*Bot, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("slack: botToken and appToken are both required")
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	client := socketmode.New(api)

	return &Bot{cfg: cfg, api: api, client: client, onMsg: onMsg}, nil
}

// Name implements adapter.Adapter.
func (b *Bot) Name() string { return "slack" }

// Start implements adapter.Adapter: connects Socket Mode and begins
// dispatching events in the background.
func (b *Bot) Start(ctx context.Context) error {
	auth, err := b.api.AuthTest()
	if err != nil {
		return fmt.Errorf("slack: auth test failed: %w", err)
	}
	b.botID = auth.UserID
	logging.Info("slack: connected", "bot", auth.User, "team", auth.Team)

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	go b.dispatchLoop(runCtx)
	go func() {
		if err := b.client.RunContext(runCtx); err != nil && runCtx.Err() == nil {
			logging.Warn("slack: socket mode run exited", "error", err)
		}
	}()
	return nil
}

func (b *Bot) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-b.client.Events:
			if !ok {
				return
			}
			b.handleEvent(evt)
		}
	}
}

func (b *Bot) handleEvent(evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	b.client.Ack(*evt.Request)

	inner, ok := eventsAPI.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	if inner.BotID != "" || inner.User == b.botID || inner.User == "" {
		return
	}
	if !b.cfg.allowed(inner.User) {
		logging.Warn("slack: rejected message from unauthorized user", "userId", inner.User)
		return
	}

	threadID := inner.Channel
	if inner.ThreadTimeStamp != "" {
		threadID = inner.Channel + "--" + inner.ThreadTimeStamp
	}
	msg := adapter.Message{
		Source:   "slack",
		SourceID: inner.User,
		Text:     inner.Text,
		Metadata: map[string]any{"threadId": threadID},
	}
	b.onMsg(msg)
}

// Stop implements adapter.Adapter.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}

// SendResponse implements adapter.Adapter: posts to the channel named by
// msg.Metadata["threadId"] (falling back to SourceID), threaded under
// the encoded timestamp when present.
func (b *Bot) SendResponse(ctx context.Context, msg adapter.Message) error {
	channel, threadTS := splitChannelThread(msg.ThreadID())
	if channel == "" {
		channel = msg.SourceID
	}

	opts := []slack.MsgOption{slack.MsgOptionText(msg.Text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, _, err := b.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// splitChannelThread reconstructs a channel id and an optional thread
// timestamp from a "channelId--threadTs" encoded thread id.
func splitChannelThread(threadID string) (channel, threadTS string) {
	channel, threadTS, found := strings.Cut(threadID, "--")
	if !found {
		return threadID, ""
	}
	return channel, threadTS
}
