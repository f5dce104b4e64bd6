// Package simulate drives a running boothwise service with simulated fair
// visitors and checks the recommendations it returns.
package simulate

import (
	"time"

	"github.com/okian/boothwise/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Visitors int           // Number of simulated visitors
	Visits   int           // Booth visits per visitor
	Workers  int           // Number of concurrent HTTP workers
	Timeout  time.Duration // HTTP request timeout
	Settle   time.Duration // How long to wait for the service to drain submissions
	Seed     uint64        // Seed for the visit generator
	SkipSeed bool          // Use the booth catalog already loaded by the service
	Verbose  bool          // Log every visitor's result
}

// Visitor is one simulated attendee and the interactions they record.
type Visitor struct {
	ID           string
	Interactions []model.Interaction
}

// Visited returns the set of booth IDs the visitor talked to.
func (v *Visitor) Visited() map[string]struct{} {
	out := make(map[string]struct{}, len(v.Interactions))
	for i := range v.Interactions {
		out[v.Interactions[i].BoothID] = struct{}{}
	}
	return out
}

// Stats holds simulation statistics.
type Stats struct {
	BoothsSeeded        int
	Visitors            int
	Submitted           int
	Accepted            int
	Duplicate           int
	Failed              int
	Verified            int
	Violations          int
	EmptyRecommendation int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
