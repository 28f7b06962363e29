// Package telegram implements the Telegram transport adapter over
// gopkg.in/telebot.v4.
package telegram

// Config holds the Telegram bot connection settings.
type Config struct {
	Enabled        bool    `json:"enabled"`
	BotToken       string  `json:"botToken"`
	AllowedUserIDs []int64 `json:"allowedUserIds,omitempty"`

	// Mode selects the update transport: "polling" (default) runs a
	// long-poller, "webhook" registers an HTTP listener at WebhookListen
	// and tells Telegram to push updates to WebhookURL.
	Mode          string `json:"mode,omitempty"`
	WebhookListen string `json:"webhookListen,omitempty"`
	WebhookURL    string `json:"webhookUrl,omitempty"`
}

// allowed reports whether userID may talk to the bot. An empty
// AllowedUserIDs list means allow all: no allowlist configured is not a
// lockdown. A non-empty list is a strict allowlist, so a userID absent
// from it is rejected.
func (c Config) allowed(userID int64) bool {
	if len(c.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
