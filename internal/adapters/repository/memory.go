package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/boothwise/internal/domain/identity"
	"github.com/okian/boothwise/internal/domain/model"
)

const backendMemory = "memory"

// MemoryStore is a Store kept entirely in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	opts storeOptions

	interactions     map[string][]model.Interaction
	interactionByID  map[string]model.Interaction
	interactionCount int
	lastCreated      time.Time

	booths     map[string]model.Booth
	boothOrder []string

	profiles        map[string]model.Profile
	recommendations map[string][]model.Recommendation
	recCount        int

	closed   bool
	reporter *reporter
}

// NewMemoryStore constructs an empty in-memory store. Background metric
// updates stop when ctx is done or the store is closed.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		opts:            newStoreOptions(opts),
		interactions:    make(map[string][]model.Interaction),
		interactionByID: make(map[string]model.Interaction),
		booths:          make(map[string]model.Booth),
		profiles:        make(map[string]model.Profile),
		recommendations: make(map[string][]model.Recommendation),
	}
	s.reporter = startReporter(ctx, s.opts.metricsUpdateInterval, s, s.opts.logger)
	return s
}

func (s *MemoryStore) AppendInteraction(_ context.Context, in model.Interaction) (model.Interaction, int, error) {
	defer observe(backendMemory, "append_interaction", time.Now())
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.ID) == "" {
		return model.Interaction{}, 0, fmt.Errorf("%w: interaction needs id and user_id", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Interaction{}, 0, ErrClosed
	}

	if existing, ok := s.interactionByID[in.ID]; ok {
		return existing, len(s.interactions[existing.UserID]), fmt.Errorf("interaction %s: %w", in.ID, ErrDuplicate)
	}

	in.CreatedAt = nextTimestamp(s.opts.now(), s.lastCreated)
	s.lastCreated = in.CreatedAt
	s.interactions[in.UserID] = append(s.interactions[in.UserID], in)
	s.interactionByID[in.ID] = in
	s.interactionCount++
	return in, len(s.interactions[in.UserID]), nil
}

func (s *MemoryStore) ListInteractionsByUser(_ context.Context, userID string) ([]model.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	src := s.interactions[userID]
	out := make([]model.Interaction, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) PutBooth(_ context.Context, b model.Booth) error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: booth needs an id", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, ok := s.booths[b.ID]; !ok {
		s.boothOrder = append(s.boothOrder, b.ID)
	}
	s.booths[b.ID] = b
	return nil
}

func (s *MemoryStore) GetBooth(_ context.Context, id string) (model.Booth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Booth{}, ErrClosed
	}

	b, ok := s.booths[id]
	if !ok {
		return model.Booth{}, fmt.Errorf("booth %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (s *MemoryStore) ListBooths(_ context.Context) ([]model.Booth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]model.Booth, 0, len(s.boothOrder))
	for _, id := range s.boothOrder {
		out = append(out, s.booths[id])
	}
	return out, nil
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Profile{}, ErrClosed
	}

	p, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) MergeProfile(_ context.Context, userID string, skills, interests []string) (model.Profile, error) {
	defer observe(backendMemory, "merge_profile", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Profile{}, ErrClosed
	}

	p := s.profiles[userID]
	p.UserID = userID
	p = identity.Merge(p, skills, interests)
	p.UpdatedAt = s.opts.now()
	s.profiles[userID] = p
	return p, nil
}

func (s *MemoryStore) InsertRecommendation(_ context.Context, rec model.Recommendation) (string, error) {
	defer observe(backendMemory, "insert_recommendation", time.Now())
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	s.recommendations[rec.UserID] = append(s.recommendations[rec.UserID], rec)
	s.recCount++
	return rec.ID, nil
}

func (s *MemoryStore) ListRecommendationsByUser(_ context.Context, userID string, now time.Time) ([]model.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]model.Recommendation, 0, len(s.recommendations[userID]))
	for i := range s.recommendations[userID] {
		if !s.recommendations[userID][i].Expired(now) {
			out = append(out, s.recommendations[userID][i])
		}
	}
	sortRecommendations(out)
	return out, nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrClosed
	}

	return Stats{
		Users:           len(s.profiles),
		Interactions:    s.interactionCount,
		Booths:          len(s.booths),
		Recommendations: s.recCount,
	}, nil
}

// Close stops background work. Later calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.reporter.stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
