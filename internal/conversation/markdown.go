package conversation

import "regexp"

// Telegram MarkdownV2 reserved characters, per the Bot API formatting rules.
var markdownReserved = regexp.MustCompile("([_*~`>#+\\-=|{}.!\\[\\]()])")

// inlineLinkPlaceholder protects a URL from escaping so it can be emitted as
// an inline link after the rest of the text is escaped.
var inlineLinkPlaceholder = regexp.MustCompile(`\$gmaps\$(\S+)\$gmaps\$`)

// EscapeMarkdownV2 escapes every reserved MarkdownV2 character in text.
func EscapeMarkdownV2(text string) string {
	return markdownReserved.ReplaceAllString(text, `\$1`)
}

// renderWithDirectionsLink escapes text for MarkdownV2 and then rewrites any
// $gmaps$<url>$gmaps$ placeholder into a "Google Maps Directions" inline link.
func renderWithDirectionsLink(text string) string {
	escaped := EscapeMarkdownV2(text)
	return inlineLinkPlaceholder.ReplaceAllString(escaped, "[Google Maps Directions]($1)")
}
