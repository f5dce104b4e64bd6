// Package identity maintains the user's accumulated skills and interests and
// decides when new interactions should refresh recommendations.
package identity

import "github.com/okian/boothwise/internal/domain/model"

// refreshEvery is the cadence, in interactions, at which recommendations are
// regenerated after the first one.
const refreshEvery = 2

// Union appends every value of add not already present in set. Matching is
// exact and case-sensitive; existing values are never removed or reordered.
func Union(set, add []string) []string {
	seen := make(map[string]struct{}, len(set)+len(add))
	out := make([]string, 0, len(set)+len(add))
	for _, v := range set {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range add {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Merge folds the skills and interests of one interaction into p and bumps
// its interaction count.
func Merge(p model.Profile, skills, interests []string) model.Profile { //nolint:gocritic // profile is copied on purpose
	p.Skills = Union(p.Skills, skills)
	p.Interests = Union(p.Interests, interests)
	p.InteractionCount++
	return p
}

// ShouldRecommend reports whether the count-th interaction of a user
// triggers a recommendation run: the first one and every even one.
func ShouldRecommend(count int) bool {
	return count == 1 || (count > 0 && count%refreshEvery == 0)
}
