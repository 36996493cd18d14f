package chat

// titleLimit is the number of leading characters kept when deriving a
// conversation title from a message.
const titleLimit = 30

// SynthesizeTitle derives a short label for a conversation from its early
// messages. Pure function: the first user message wins; image turns title as
// "Image: <prompt prefix>"; no user message yields the sentinel title.
func SynthesizeTitle(msgs []Message) string {
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		if m.Kind == ContentImage && m.Image != nil {
			return "Image: " + truncate(m.Image.Content)
		}
		return truncate(m.Content)
	}
	return DefaultTitle
}

func truncate(s string) string {
	if len(s) > titleLimit {
		return s[:titleLimit] + "..."
	}
	return s
}
