package consultation

import "strings"

// triggerPhrases advance the pipeline from listening to summarizing when
// spoken. Matching is a case-insensitive substring check over the latest
// utterance only; transcript history is never consulted, so the decision
// stays free of any model call.
var triggerPhrases = []string{
	"summarize",
	"we are done",
	"finish summary",
}

// ShouldSummarize reports whether the pipeline should run extraction and
// summarization now. explicit is the caller's override flag.
func ShouldSummarize(utterance string, explicit bool) bool {
	if explicit {
		return true
	}
	lower := strings.ToLower(utterance)
	for _, phrase := range triggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
