package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/padaemon/padaemon/internal/adapter"
	"github.com/padaemon/padaemon/internal/logging"
)

// Bot is the Telegram Adapter implementation.
type Bot struct {
	cfg    Config
	bot    *tele.Bot
	onMsg  adapter.MessageHandler
	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Bot. onMsg is invoked for every accepted inbound text
// message; the caller typically wires this to Gateway.Enqueue.
func New(cfg Config, onMsg adapter.MessageHandler) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram: bot token not configured")
	}

	pref := tele.Settings{
		Token:  cfg.BotToken,
		Poller: pollerFor(cfg),
	}
	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}

	b := &Bot{cfg: cfg, bot: tb, onMsg: onMsg}
	tb.Handle(tele.OnText, b.handleText)
	return b, nil
}

// pollerFor selects the update transport named by cfg.Mode. "webhook"
// registers an HTTP listener that Telegram pushes updates to; anything
// else (including the empty string) falls back to long-polling.
func pollerFor(cfg Config) tele.Poller {
	if cfg.Mode != "webhook" {
		return &tele.LongPoller{Timeout: 10 * time.Second}
	}
	return &tele.Webhook{
		Listen:   cfg.WebhookListen,
		Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.WebhookURL},
	}
}

// Name implements adapter.Adapter.
func (b *Bot) Name() string { return "telegram" }

// Start implements adapter.Adapter: begins receiving updates in the
// background through the poller chosen by pollerFor (long-poll or webhook).
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)
	logging.Info("telegram: starting", "bot", "@"+b.bot.Me.Username)
	go b.bot.Start()
	return nil
}

// Stop implements adapter.Adapter.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}
	b.bot.Stop()
	return nil
}

func (b *Bot) handleText(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	if c.Sender().IsBot {
		return nil
	}
	if !b.cfg.allowed(c.Sender().ID) {
		logging.Warn("telegram: rejected message from unauthorized user", "userId", c.Sender().ID)
		return nil
	}

	msg := adapter.Message{
		Source:   "telegram",
		SourceID: strconv.FormatInt(c.Sender().ID, 10),
		Text:     c.Text(),
		Metadata: map[string]any{"threadId": strconv.FormatInt(c.Chat().ID, 10)},
	}
	b.onMsg(msg)
	return nil
}

// SendResponse implements adapter.Adapter: delivers text to the chat
// named by msg.Metadata["threadId"] (falling back to SourceID), chunked
// to fit Telegram's message size limit.
func (b *Bot) SendResponse(ctx context.Context, msg adapter.Message) error {
	chatIDStr := msg.ThreadID()
	if chatIDStr == "" {
		chatIDStr = msg.SourceID
	}
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", chatIDStr, err)
	}

	chunks := splitMessage(msg.Text, maxMessageLength)
	recipient := &tele.Chat{ID: chatID}
	for i, chunk := range chunks {
		if _, err := b.bot.Send(recipient, chunk); err != nil {
			return fmt.Errorf("telegram: send chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}
