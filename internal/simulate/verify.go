package simulate

import (
	"fmt"

	"github.com/okian/boothwise/internal/domain/model"
)

// Ranking limits checked by Verify.
const (
	maxRecommendations = 5
	maxReasons         = 3
	maxScore           = 100
)

// Verify checks a visitor's recommendations against the ranking rules: at
// most five entries, scores in 1..100 and non-increasing, at most three
// reasons and based-on tags each, no booth the visitor already talked to
// and no booth outside the catalog.
func Verify(v *Visitor, recs []model.ScoredBooth, catalog map[string]struct{}) []error {
	var errs []error
	if len(recs) > maxRecommendations {
		errs = append(errs, fmt.Errorf("%s: %d recommendations, want at most %d", v.ID, len(recs), maxRecommendations))
	}

	visited := v.Visited()
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		r := &recs[i]
		id := r.Booth.ID
		if r.Score < 1 || r.Score > maxScore {
			errs = append(errs, fmt.Errorf("%s: booth %s score %d out of range", v.ID, id, r.Score))
		}
		if i > 0 && r.Score > recs[i-1].Score {
			errs = append(errs, fmt.Errorf("%s: booth %s ranked below a lower score", v.ID, id))
		}
		if len(r.MatchReasons) == 0 || len(r.MatchReasons) > maxReasons {
			errs = append(errs, fmt.Errorf("%s: booth %s has %d reasons", v.ID, id, len(r.MatchReasons)))
		}
		if len(r.BasedOnTags) > maxReasons {
			errs = append(errs, fmt.Errorf("%s: booth %s based on %d tags", v.ID, id, len(r.BasedOnTags)))
		}
		if _, ok := visited[id]; ok {
			errs = append(errs, fmt.Errorf("%s: recommended visited booth %s", v.ID, id))
		}
		if _, ok := catalog[id]; !ok {
			errs = append(errs, fmt.Errorf("%s: recommended unknown booth %s", v.ID, id))
		}
		if _, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("%s: booth %s recommended twice", v.ID, id))
		}
		seen[id] = struct{}{}
	}
	return errs
}
