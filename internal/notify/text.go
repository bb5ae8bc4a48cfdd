package notify

import (
	"strings"
	"unicode/utf8"
)

// markdownEscaper escapes the characters legacy Telegram Markdown treats as
// entity delimiters. Game keys and book keys carry underscores.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// truncate shortens s to at most limit bytes, ending in "...". The cut
// never splits a UTF-8 sequence or leaves a dangling escape backslash.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const ellipsis = "..."
	cut := limit - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	head := s[:cut]
	if strings.HasSuffix(head, `\`) && !strings.HasSuffix(head, `\\`) {
		head = head[:len(head)-1]
	}
	return head + ellipsis
}
