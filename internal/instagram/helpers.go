package instagram

import "strings"

// FormatMention prefixes a username with @ unless it already has one.
func FormatMention(username string) string {
	if strings.HasPrefix(username, "@") {
		return username
	}
	return "@" + username
}

// TruncateMessage shortens a message to maxLen runes, ellipsized. The
// Graph API rejects over-long reply bodies outright, so trimming here is
// the difference between a trimmed reply and no reply at all.
func TruncateMessage(message string, maxLen int) string {
	runes := []rune(message)
	if len(runes) <= maxLen {
		return message
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
