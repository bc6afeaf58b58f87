// Package analysis scores call transcripts against a weighted sales
// evaluation framework using an OpenAI-compatible chat-completions API, and
// owns the asynchronous trigger queue that decouples scoring from ingestion.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidModelOutput indicates the model response did not contain the
// required JSON shape. It is never coerced to a default score.
var ErrInvalidModelOutput = errors.New("invalid model output")

// Category is one scored stage of the evaluation framework. Weights are
// percentages and sum to 100 across the framework.
type Category struct {
	Name     string
	Weight   int
	Criteria []string
}

// Framework is the fixed multi-category sales evaluation rubric encoded into
// the system prompt.
type Framework struct {
	Categories []Category
}

// DefaultFramework is the seven-stage sales process rubric.
func DefaultFramework() *Framework {
	return &Framework{Categories: []Category{
		{
			Name:   "Opening & Rapport",
			Weight: 10,
			Criteria: []string{
				"Creates a comfortable, welcoming atmosphere",
				"Sounds natural rather than scripted",
			},
		},
		{
			Name:   "Intent Setting",
			Weight: 10,
			Criteria: []string{
				"Asks why the prospect booked the call and uses their answer",
				"States a clear intention for the conversation",
			},
		},
		{
			Name:   "Current Situation Discovery",
			Weight: 20,
			Criteria: []string{
				"Probes several layers deep instead of accepting surface answers",
				"Builds a genuine picture of the prospect's situation",
			},
		},
		{
			Name:   "Desired Outcome",
			Weight: 15,
			Criteria: []string{
				"Uncovers what the prospect actually wants and why",
				"Connects goals to underlying motivation, not just numbers",
			},
		},
		{
			Name:   "Gap & Pathway",
			Weight: 15,
			Criteria: []string{
				"Establishes why the prospect cannot bridge the gap alone",
				"Makes the distance between current and desired state concrete",
			},
		},
		{
			Name:   "Pitch & Solution Framing",
			Weight: 15,
			Criteria: []string{
				"Presents the offer as the bridge across the identified gap",
				"Ties solution points back to the prospect's own words",
			},
		},
		{
			Name:   "Objection Handling & Close",
			Weight: 15,
			Criteria: []string{
				"Addresses objections without pressure or avoidance",
				"Drives toward a clear, mutual next step",
			},
		},
	}}
}

// SystemPrompt renders the framework into the fixed system message sent with
// every scoring request.
func (f *Framework) SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an expert sales coach. Evaluate the sales call transcript ")
	b.WriteString("against the following weighted framework. Score each category 0-100 ")
	b.WriteString("and compute the overall score as the weighted average.\n\n")

	for _, cat := range f.Categories {
		fmt.Fprintf(&b, "## %s (%d%%)\n", cat.Name, cat.Weight)
		for _, crit := range cat.Criteria {
			fmt.Fprintf(&b, "- %s\n", crit)
		}
		b.WriteString("\n")
	}

	b.WriteString("Respond with ONLY a JSON object of this exact shape:\n")
	b.WriteString(`{
  "overall_score": <number 0-100>,
  "category_scores": [
    {"category": "<name>", "score": <number 0-100>, "feedback": "<specific coaching feedback>"}
  ],
  "strengths": "<what the rep did well>",
  "improvements": "<what the rep should improve>",
  "summary": "<2-3 sentence summary of the call>"
}`)
	return b.String()
}

// rawResult mirrors the model's JSON response. Pointer fields distinguish
// missing keys from zero values during validation.
type rawResult struct {
	OverallScore   *float64 `json:"overall_score"`
	CategoryScores []struct {
		Category string   `json:"category"`
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	} `json:"category_scores"`
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Summary      string `json:"summary"`
}

// Result is a validated scoring outcome.
type Result struct {
	OverallScore   int
	CategoryScores []CategoryResult
	Strengths      string
	Improvements   string
	Summary        string
}

// CategoryResult is one validated per-category score.
type CategoryResult struct {
	Category string
	Score    int
	Feedback string
}

// ParseResult validates the model's JSON response. Every missing or
// out-of-range key fails with ErrInvalidModelOutput; a malformed response is
// never silently mapped to a default score.
func ParseResult(content string) (*Result, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidModelOutput, err)
	}

	if raw.OverallScore == nil {
		return nil, fmt.Errorf("%w: missing overall_score", ErrInvalidModelOutput)
	}
	if *raw.OverallScore < 0 || *raw.OverallScore > 100 {
		return nil, fmt.Errorf("%w: overall_score %v out of range", ErrInvalidModelOutput, *raw.OverallScore)
	}
	if len(raw.CategoryScores) == 0 {
		return nil, fmt.Errorf("%w: missing category_scores", ErrInvalidModelOutput)
	}
	if raw.Summary == "" {
		return nil, fmt.Errorf("%w: missing summary", ErrInvalidModelOutput)
	}
	if raw.Strengths == "" {
		return nil, fmt.Errorf("%w: missing strengths", ErrInvalidModelOutput)
	}
	if raw.Improvements == "" {
		return nil, fmt.Errorf("%w: missing improvements", ErrInvalidModelOutput)
	}

	result := &Result{
		OverallScore: int(*raw.OverallScore),
		Strengths:    raw.Strengths,
		Improvements: raw.Improvements,
		Summary:      raw.Summary,
	}
	for i, cs := range raw.CategoryScores {
		if cs.Category == "" || cs.Score == nil {
			return nil, fmt.Errorf("%w: category_scores[%d] incomplete", ErrInvalidModelOutput, i)
		}
		if *cs.Score < 0 || *cs.Score > 100 {
			return nil, fmt.Errorf("%w: category_scores[%d].score %v out of range", ErrInvalidModelOutput, i, *cs.Score)
		}
		result.CategoryScores = append(result.CategoryScores, CategoryResult{
			Category: cs.Category,
			Score:    int(*cs.Score),
			Feedback: cs.Feedback,
		})
	}
	return result, nil
}
