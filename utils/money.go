package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	randPrinter = message.NewPrinter(language.English)

	// R500, R 1 500.50, ZAR1,200, 750 rand; bare numbers are accepted as well
	amountRegex = regexp.MustCompile(`(?i)(\bzar\s?|\br\s?)?(\d{1,3}(?:[ ,]\d{3})+|\d+)(?:\.(\d{1,2}))?`)

	// 25th, 3 months, 15 March, 2024-03-15 are dates or durations
	notAmountSuffix = regexp.MustCompile(`(?i)^(?:(?:st|nd|rd|th)\b|[-/]\d|\s*(?:days?|weeks?|months?|years?|jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|june?|july?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b)`)
	datePartPrefix  = regexp.MustCompile(`\d[-/]$`)
	randSuffix      = regexp.MustCompile(`(?i)^\s*rands?\b`)
)

const maxAmountDigits = 9

// FormatRand renders an amount as R1,234.56
func FormatRand(amount decimal.Decimal) string {
	return randPrinter.Sprintf("R%.2f", amount.Round(2).InexactFloat64())
}

// FindAmount extracts the first money amount in the message. Long digit runs
// (identity or account numbers), ordinals and dates are ignored.
func FindAmount(text string) (decimal.Decimal, bool) {
	return findAmount(text, false)
}

// FindStatedAmount is FindAmount for replies to a yes/no question: the number
// needs a currency marker unless it is the whole reply.
func FindStatedAmount(text string) (decimal.Decimal, bool) {
	return findAmount(text, true)
}

func findAmount(text string, requireMarker bool) (decimal.Decimal, bool) {
	bareReply := strings.TrimRight(strings.TrimSpace(text), ".!")

	for _, loc := range amountRegex.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if notAmountSuffix.MatchString(text[end:]) || datePartPrefix.MatchString(text[:start]) {
			continue
		}

		if requireMarker {
			hasMarker := loc[2] >= 0 || randSuffix.MatchString(text[end:])
			if !hasMarker && text[start:end] != bareReply {
				continue
			}
		}

		whole := strings.NewReplacer(",", "", " ", "").Replace(text[loc[4]:loc[5]])
		if len(whole) > maxAmountDigits {
			continue
		}

		raw := whole
		if loc[6] >= 0 {
			raw += "." + text[loc[6]:loc[7]]
		}

		amount, err := decimal.NewFromString(raw)
		if err != nil || !amount.IsPositive() {
			continue
		}
		return amount, true
	}
	return decimal.Zero, false
}

var paymentDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatPaymentDate renders an upstream timestamp as "02 January 2006".
// The case system uses 1900-01-01 for "never paid".
func FormatPaymentDate(raw string) string {
	if raw == "" || strings.Contains(raw, "1900-01-01") {
		return "N/A"
	}

	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), "Z")
	for _, layout := range paymentDateLayouts {
		if parsed, err := time.Parse(layout, cleaned); err == nil {
			return parsed.Format("02 January 2006")
		}
	}

	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
		return parsed.Format("02 January 2006")
	}

	datePart, _, _ := strings.Cut(raw, "T")
	return datePart
}
