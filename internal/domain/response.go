package domain

import "strings"

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

// TextCommand wraps an utterance so it travels through an audio source
// without transcription.
func TextCommand(text string) []byte {
	return []byte(TextCommandPrefix + text)
}

// ParseTextCommand reports whether data is a wrapped text command.
func ParseTextCommand(data []byte) (string, bool) {
	text, ok := strings.CutPrefix(string(data), TextCommandPrefix)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// Response is the payload handed to the rendering / TTS collaborator.
type Response struct {
	Text      string    `json:"response"`
	Success   bool      `json:"success"`
	QueryType QueryType `json:"query_type"`
	Entity    *string   `json:"entity"`
	Capital   *string   `json:"capital"`

	Reason     FailureReason `json:"-"`
	Candidates []Candidate   `json:"-"`
}

func StringPtr(s string) *string {
	return &s
}
