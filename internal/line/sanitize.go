package line

import (
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// LINE rejects text messages over 5000 characters.
const maxMessageLength = 5000

const (
	FallbackEmpty     = "Sorry, I couldn't generate a response. Please try again."
	FallbackEncoding  = "Sorry, I couldn't generate a response due to encoding issues. Please try again."
	FallbackEmergency = "I apologize for the inconvenience. Please try again later."
)

// PrepareText normalizes arbitrary text into something the LINE API will
// accept. It never fails: the result is always non-empty, valid UTF-8 and at
// most 5000 characters.
func PrepareText(text string) string {
	if strings.TrimSpace(text) == "" {
		logrus.Warn("Empty message detected, using fallback text")
		text = FallbackEmpty
	}

	if !utf8.ValidString(text) {
		logrus.Warnf("Message contains invalid UTF-8 (%d bytes), repairing", len(text))
		repaired := strings.ToValidUTF8(text, "�")
		if repaired == "" {
			repaired = FallbackEncoding
		}
		text = repaired
	}

	if strings.TrimSpace(text) == "" {
		logrus.Error("Text is still empty after all processing, using emergency fallback message")
		text = FallbackEmergency
	}

	if n := utf8.RuneCountInString(text); n > maxMessageLength {
		logrus.Warnf("Message too long (%d chars), truncating to %d chars", n, maxMessageLength)
		runes := []rune(text)
		text = string(runes[:maxMessageLength-3]) + "..."
	}

	return text
}
