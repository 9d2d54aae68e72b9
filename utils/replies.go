package utils

import (
	"strings"
	"unicode"
)

var affirmativeReplies = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "yes please": true, "sure": true,
	"ok": true, "okay": true, "proceed": true, "go ahead": true, "please proceed": true,
	"confirm": true, "confirmed": true, "correct": true, "that's fine": true, "thats fine": true,
}

var negativeReplies = map[string]bool{
	"no": true, "n": true, "nope": true, "no thanks": true, "not really": true,
	"cancel": true, "change": true, "change it": true, "no i want to change": true,
}

// NormalizeReply lowercases and strips punctuation and emoji from a short reply
func NormalizeReply(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '\'' {
			return unicode.ToLower(r)
		}
		return -1
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}

func IsAffirmative(text string) bool {
	return affirmativeReplies[NormalizeReply(text)]
}

func IsNegative(text string) bool {
	return negativeReplies[NormalizeReply(text)]
}

// IsApprovalRequest matches the "request approval" option of the below-minimum prompt
func IsApprovalRequest(text string) bool {
	reply := NormalizeReply(text)
	if reply == "1" || reply == "option 1" {
		return true
	}
	return strings.Contains(reply, "approval") || IsAffirmative(text)
}
