// Package slack implements the Slack transport adapter over
// github.com/slack-go/slack's Socket Mode client.
package slack

// Config holds the Slack app connection settings. Socket Mode needs both
// a bot token (xoxb-) for posting and an app-level token (xapp-) for the
// websocket connection.
type Config struct {
	Enabled      bool   `json:"enabled"`
	BotToken     string `json:"botToken"`
	AppToken     string `json:"appToken"`
	AllowedUsers []string `json:"allowedUsers,omitempty"`
}

// allowed mirrors the Telegram adapter's allowlist semantics: an empty
// AllowedUsers list means allow all. A non-empty list is a strict
// allowlist, so a userID absent from it is rejected.
func (c Config) allowed(userID string) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
