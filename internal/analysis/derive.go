package analysis

import (
	"fmt"

	"call-coach-go/internal/models"
)

// Sentiment bucket thresholds over the overall score. Policy values, not
// laws of nature; tune here rather than inline.
const (
	SentimentPositiveMin = 70
	SentimentNeutralMin  = 50
)

// Key-topic extraction thresholds over per-category scores.
const (
	topicStrongMin = 80
	topicWeakMax   = 50
	maxKeyTopics   = 5
)

// SentimentFor buckets an overall score into a coarse sentiment label.
func SentimentFor(score int) string {
	switch {
	case score >= SentimentPositiveMin:
		return models.SentimentPositive
	case score >= SentimentNeutralMin:
		return models.SentimentNeutral
	default:
		return models.SentimentNegative
	}
}

// KeyTopics derives up to five topic strings from category extremes: the
// clearly strong and clearly weak stages of the call.
func KeyTopics(scores []CategoryResult) []string {
	topics := make([]string, 0, maxKeyTopics)
	for _, cs := range scores {
		if len(topics) >= maxKeyTopics {
			break
		}
		if cs.Score >= topicStrongMin {
			topics = append(topics, fmt.Sprintf("Strong: %s", cs.Category))
		} else if cs.Score < topicWeakMax {
			topics = append(topics, fmt.Sprintf("Needs work: %s", cs.Category))
		}
	}
	return topics
}
