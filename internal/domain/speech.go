package domain

import "unicode/utf8"

// MaxSpeechChars is the synthesis service's input ceiling.
const MaxSpeechChars = 500

// TruncationMarker is appended to text cut at MaxSpeechChars.
const TruncationMarker = "..."

// SpeechText cuts text to limit characters and appends TruncationMarker when
// it had to cut. Characters are runes, so multi-byte scripts are never split.
func SpeechText(text string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + TruncationMarker, true
		}
		n++
	}
	return text, false
}
