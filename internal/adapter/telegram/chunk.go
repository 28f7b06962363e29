package telegram

import "strings"

// maxMessageLength is Telegram's hard 4096-codepoint cap, with headroom
// left for formatting.
const maxMessageLength = 4000

// splitMessage breaks text into chunks no longer than maxLen, preferring
// to break at paragraph, then sentence, then word boundaries.
func splitMessage(text string, maxLen int) []string {
	if len([]rune(text)) <= maxLen {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > 0 {
		if len([]rune(remaining)) <= maxLen {
			chunks = append(chunks, remaining)
			break
		}
		splitAt := findSplitPoint(remaining, maxLen)
		chunks = append(chunks, strings.TrimSpace(remaining[:splitAt]))
		remaining = strings.TrimSpace(remaining[splitAt:])
	}
	return chunks
}

func findSplitPoint(text string, maxLen int) int {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return len(text)
	}
	searchArea := string(runes[:maxLen])

	if idx := strings.LastIndex(searchArea, "\n\n"); idx > maxLen/2 {
		return idx + 2
	}
	if idx := strings.LastIndex(searchArea, "\n"); idx > maxLen/2 {
		return idx + 1
	}
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.LastIndex(searchArea, sep); idx > maxLen/2 {
			return idx + len(sep)
		}
	}
	if idx := strings.LastIndex(searchArea, " "); idx > maxLen/2 {
		return idx + 1
	}
	return len(searchArea)
}
