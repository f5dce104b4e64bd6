// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Sentiment is the enriched tone of a recorded conversation.
type Sentiment string

// Known sentiments. Anything else is treated as neutral.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// FallbackSummary is stored when enrichment produced no summary.
const FallbackSummary = "Follow up with this booth to continue the conversation."

// ParseSentiment maps free text to a Sentiment, defaulting to neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Interaction is one recorded conversation between a user and a booth.
// It is immutable once stored; CreatedAt is assigned by the store.
type Interaction struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	BoothID            string    `json:"booth_id"`
	Sentiment          Sentiment `json:"sentiment"`
	Tags               []string  `json:"tags"`
	MentionedSkills    []string  `json:"mentioned_skills"`
	MentionedInterests []string  `json:"mentioned_interests"`
	Summary            string    `json:"summary,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// WithDefaults returns a copy with missing enrichment filled in: neutral
// sentiment, empty (non-nil) term lists and the fallback summary. IDs are
// trimmed and terms are normalized to the lowercase hyphenated form.
func (in Interaction) WithDefaults() Interaction { //nolint:gocritic // value receiver keeps the record immutable
	out := in
	out.ID = strings.TrimSpace(in.ID)
	out.UserID = strings.TrimSpace(in.UserID)
	out.BoothID = strings.TrimSpace(in.BoothID)
	out.Sentiment = ParseSentiment(string(in.Sentiment))
	out.Tags = NormalizeTerms(in.Tags)
	out.MentionedSkills = NormalizeTerms(in.MentionedSkills)
	out.MentionedInterests = NormalizeTerms(in.MentionedInterests)
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = FallbackSummary
	}
	return out
}

// NormalizeTerm lowercases a descriptor and joins its words with hyphens.
func NormalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// NormalizeTerms normalizes every term, dropping empty ones. The result is
// never nil.
func NormalizeTerms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := NormalizeTerm(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
