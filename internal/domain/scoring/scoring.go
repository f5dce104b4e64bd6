// Package scoring aggregates a user's interaction history into weighted
// signals and scores booths against them.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/boothwise/internal/domain/model"
)

// Fixed scoring policy.
const (
	TopTagCount      = 10
	TopSkillCount    = 5
	TopInterestCount = 5

	tagPoints      = 20
	skillPoints    = 25
	interestPoints = 15

	maxScoreValue  = 100
	maxReasons     = 3
	maxBasedOnTags = 3
)

// counter counts terms and remembers the order they were first seen in.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(term string) {
	if term == "" {
		return
	}
	if _, ok := c.counts[term]; !ok {
		c.order = append(c.order, term)
	}
	c.counts[term]++
}

// top returns up to k terms by descending count. Equal counts keep
// first-seen order.
func (c *counter) top(k int) []string {
	terms := make([]string, len(c.order))
	copy(terms, c.order)
	sort.SliceStable(terms, func(i, j int) bool {
		return c.counts[terms[i]] > c.counts[terms[j]]
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	return terms
}

// Signals is the aggregated view of a user's history.
type Signals struct {
	TopTags      []string
	TopSkills    []string
	TopInterests []string
	// Visited holds every booth the user already talked to.
	Visited map[string]struct{}
	// PositiveCount is tracked for future weighting and does not affect scores.
	PositiveCount int
	Total         int
}

// Aggregate walks interactions once, counting every tag, skill and interest
// occurrence and collecting visited booths.
func Aggregate(interactions []model.Interaction) Signals {
	tags, skills, interests := newCounter(), newCounter(), newCounter()
	s := Signals{Visited: make(map[string]struct{}, len(interactions))}

	for i := range interactions {
		in := &interactions[i]
		for _, t := range in.Tags {
			tags.add(t)
		}
		for _, sk := range in.MentionedSkills {
			skills.add(sk)
		}
		for _, it := range in.MentionedInterests {
			interests.add(it)
		}
		s.Visited[in.BoothID] = struct{}{}
		if in.Sentiment == model.SentimentPositive {
			s.PositiveCount++
		}
		s.Total++
	}

	s.TopTags = tags.top(TopTagCount)
	s.TopSkills = skills.top(TopSkillCount)
	s.TopInterests = interests.top(TopInterestCount)
	return s
}

// HasVisited reports whether boothID appears in the history.
func (s *Signals) HasVisited(boothID string) bool {
	_, ok := s.Visited[boothID]
	return ok
}

// BasedOnTags returns the leading top tags cited on a recommendation.
func (s *Signals) BasedOnTags() []string {
	n := min(len(s.TopTags), maxBasedOnTags)
	out := make([]string, n)
	copy(out, s.TopTags[:n])
	return out
}

// Score rates a booth against the signals. Matching is one-directional: the
// booth field must contain the user's term, case-insensitively.
func Score(s *Signals, booth *model.Booth) model.ScoredBooth {
	points := 0
	var reasons []string

	for _, tag := range s.TopTags {
		if anyContains(booth.Tags, tag) {
			points += tagPoints
			reasons = append(reasons, fmt.Sprintf("Matches your interest in \"%s\"", tag))
		}
	}
	for _, skill := range s.TopSkills {
		if anyContains(booth.LookingFor, skill) {
			points += skillPoints
			reasons = append(reasons, fmt.Sprintf("They're looking for \"%s\"", skill))
		}
	}
	description := strings.ToLower(booth.Description)
	for _, interest := range s.TopInterests {
		if strings.Contains(description, strings.ToLower(interest)) {
			points += interestPoints
			reasons = append(reasons, fmt.Sprintf("Aligned with your interest in \"%s\"", interest))
		}
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return model.ScoredBooth{
		Booth:        *booth,
		Score:        min(maxScoreValue, points),
		MatchReasons: reasons,
		BasedOnTags:  s.BasedOnTags(),
	}
}

func anyContains(fields []string, term string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
