package utils

import (
	"regexp"
)

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

var (
	markdownLinkRegex    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	markdownHeadingRegex = regexp.MustCompile(`(?m)^#+\s*(.+)$`)
	markdownBoldRegex    = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// ConvertMarkdownToSlack rewrites the markdown produced by agents and templates
// into Slack mrkdwn for operator notifications.
func ConvertMarkdownToSlack(message string) string {
	// links first so their brackets are not touched by later rules
	result := markdownLinkRegex.ReplaceAllString(message, "<$2|$1>")

	result = markdownHeadingRegex.ReplaceAllStringFunc(result, func(match string) string {
		content := markdownHeadingRegex.ReplaceAllString(match, "$1")
		content = markdownBoldRegex.ReplaceAllString(content, "$1")
		return "*" + content + "*"
	})

	return markdownBoldRegex.ReplaceAllString(result, "*$1*")
}
