package matcher

import (
	"regexp"
	"strings"
)

// Transcripts shorter than this carry too little signal to reason about.
const minSpeakerTranscriptLen = 50

// Unlabeled transcripts longer than this are assumed to be conversations.
const longTranscriptLen = 500

var speakerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Speaker \d+:`), // "Speaker 1:", "Speaker 2:"
	regexp.MustCompile(`\w+\s+\w+:`),       // "John Doe:"
	regexp.MustCompile(`\[.*?\]:`),         // "[Client]:"
}

// DetectMultipleSpeakers guesses whether a transcript contains more than one
// distinct speaker, via speaker-label patterns or a length heuristic for
// unlabeled transcripts. The signal is informational only: single-invitee
// calls are imported either way, this just annotates the sync log.
func DetectMultipleSpeakers(transcript string) bool {
	if len(strings.TrimSpace(transcript)) < minSpeakerTranscriptLen {
		return false
	}

	for _, pattern := range speakerPatterns {
		labels := pattern.FindAllString(transcript, -1)
		if labels == nil {
			continue
		}
		unique := make(map[string]struct{}, len(labels))
		for _, l := range labels {
			unique[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
		}
		if len(unique) >= 2 {
			return true
		}
	}

	return len(transcript) > longTranscriptLen
}
