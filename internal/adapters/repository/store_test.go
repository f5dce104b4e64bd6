package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
)

func init() {
	logger.Init()
}

type storeFactory func(t *testing.T, opts ...Option) Store

func newMemory(t *testing.T, opts ...Option) Store {
	t.Helper()
	s := NewMemoryStore(context.Background(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newBadger(t *testing.T, opts ...Option) Store {
	t.Helper()
	s, err := NewBadgerStore(context.Background(), "", opts...)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var backends = map[string]storeFactory{
	"memory": newMemory,
	"badger": newBadger,
}

// frozenClock always returns the same instant so stores must bump CreatedAt.
func frozenClock() func() time.Time {
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestStore_AppendInteraction(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t, WithClock(frozenClock()))

			var last time.Time
			for i := 1; i <= 3; i++ {
				in := model.Interaction{
					ID:      fmt.Sprintf("i%d", i),
					UserID:  "u1",
					BoothID: fmt.Sprintf("b%d", i),
					Tags:    []string{"ai"},
				}
				stored, count, err := s.AppendInteraction(ctx, in)
				if err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
				if count != i {
					t.Errorf("expected count %d, got %d", i, count)
				}
				if !stored.CreatedAt.After(last) {
					t.Errorf("expected CreatedAt to increase, got %v after %v", stored.CreatedAt, last)
				}
				last = stored.CreatedAt
			}

			if _, count, err := s.AppendInteraction(ctx, model.Interaction{ID: "x1", UserID: "u2"}); err != nil || count != 1 {
				t.Fatalf("expected first interaction of u2, got count=%d err=%v", count, err)
			}

			got, err := s.ListInteractionsByUser(ctx, "u1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 interactions, got %d", len(got))
			}
			for i, in := range got {
				if want := fmt.Sprintf("i%d", i+1); in.ID != want {
					t.Errorf("position %d: expected %s, got %s", i, want, in.ID)
				}
			}
		})
	}
}

func TestStore_AppendInteractionRejectsMissingIDs(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			_, _, err := s.AppendInteraction(context.Background(), model.Interaction{ID: "i1"})
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestStore_AppendInteractionDuplicateID(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			first, _, err := s.AppendInteraction(ctx, model.Interaction{ID: "i1", UserID: "u1", BoothID: "b1"})
			if err != nil {
				t.Fatalf("append: %v", err)
			}
			again, count, err := s.AppendInteraction(ctx, model.Interaction{ID: "i1", UserID: "u1", BoothID: "b2"})
			if !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
			if count != 1 {
				t.Errorf("expected count 1, got %d", count)
			}
			if again.BoothID != "b1" || !again.CreatedAt.Equal(first.CreatedAt) {
				t.Errorf("expected the original record, got %+v", again)
			}

			got, err := s.ListInteractionsByUser(ctx, "u1")
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 {
				t.Errorf("expected 1 stored interaction, got %d", len(got))
			}
		})
	}
}

func TestBadgerStore_DuplicateAfterReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := model.Interaction{ID: "i1", UserID: "u1", BoothID: "b1"}

	s, err := NewBadgerStore(ctx, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := s.AppendInteraction(ctx, in); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = NewBadgerStore(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()

	_, count, err := s.AppendInteraction(ctx, in)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate after reopen, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Interactions != 1 {
		t.Errorf("expected 1 interaction, got %d", st.Interactions)
	}
}

func TestStore_UnknownUserHasEmptyHistory(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			got, err := factory(t).ListInteractionsByUser(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

func TestStore_UserIDsDoNotCollide(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			if _, _, err := s.AppendInteraction(ctx, model.Interaction{ID: "i1", UserID: "a"}); err != nil {
				t.Fatal(err)
			}
			if _, _, err := s.AppendInteraction(ctx, model.Interaction{ID: "i2", UserID: "a:b"}); err != nil {
				t.Fatal(err)
			}
			got, err := s.ListInteractionsByUser(ctx, "a")
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0].ID != "i1" {
				t.Errorf("expected only i1 for user a, got %+v", got)
			}
		})
	}
}

func TestStore_Booths(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			// Insertion order differs from lexical order on purpose.
			for _, id := range []string{"zeta", "alpha", "mid"} {
				if err := s.PutBooth(ctx, model.Booth{ID: id, Name: id}); err != nil {
					t.Fatalf("put %s: %v", id, err)
				}
			}
			if err := s.PutBooth(ctx, model.Booth{ID: "zeta", Name: "Zeta Labs", Tags: []string{"ai"}}); err != nil {
				t.Fatalf("replace zeta: %v", err)
			}

			booths, err := s.ListBooths(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			want := []string{"zeta", "alpha", "mid"}
			if len(booths) != len(want) {
				t.Fatalf("expected %d booths, got %d", len(want), len(booths))
			}
			for i := range want {
				if booths[i].ID != want[i] {
					t.Errorf("position %d: expected %s, got %s", i, want[i], booths[i].ID)
				}
			}
			if booths[0].Name != "Zeta Labs" {
				t.Errorf("expected replaced booth name, got %q", booths[0].Name)
			}

			b, err := s.GetBooth(ctx, "alpha")
			if err != nil || b.ID != "alpha" {
				t.Errorf("get alpha: %+v %v", b, err)
			}
			if _, err := s.GetBooth(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if err := s.PutBooth(ctx, model.Booth{Name: "no id"}); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestStore_Profiles(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if _, err := s.MergeProfile(ctx, "u1", []string{"go", "sql"}, []string{"ai"}); err != nil {
				t.Fatal(err)
			}
			p, err := s.MergeProfile(ctx, "u1", []string{"sql", "rust"}, []string{"AI"})
			if err != nil {
				t.Fatal(err)
			}

			wantSkills := []string{"go", "sql", "rust"}
			wantInterests := []string{"ai", "AI"}
			if fmt.Sprint(p.Skills) != fmt.Sprint(wantSkills) {
				t.Errorf("expected skills %v, got %v", wantSkills, p.Skills)
			}
			if fmt.Sprint(p.Interests) != fmt.Sprint(wantInterests) {
				t.Errorf("expected interests %v, got %v", wantInterests, p.Interests)
			}
			if p.InteractionCount != 2 {
				t.Errorf("expected count 2, got %d", p.InteractionCount)
			}

			got, err := s.GetProfile(ctx, "u1")
			if err != nil {
				t.Fatal(err)
			}
			if got.UserID != "u1" || got.InteractionCount != 2 || len(got.Skills) != 3 {
				t.Errorf("unexpected stored profile %+v", got)
			}
		})
	}
}

func TestStore_Recommendations(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			now := time.Now()

			recs := []model.Recommendation{
				{UserID: "u1", BoothID: "low", Score: 20, CreatedAt: now, ExpiresAt: now.Add(model.RecommendationTTL)},
				{UserID: "u1", BoothID: "high", Score: 90, CreatedAt: now, ExpiresAt: now.Add(model.RecommendationTTL)},
				{ID: "fixed", UserID: "u1", BoothID: "mid", Score: 45, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
				{UserID: "u2", BoothID: "other", Score: 70, CreatedAt: now, ExpiresAt: now.Add(model.RecommendationTTL)},
			}
			ids := make([]string, 0, len(recs))
			for _, r := range recs {
				id, err := s.InsertRecommendation(ctx, r)
				if err != nil {
					t.Fatalf("insert %s: %v", r.BoothID, err)
				}
				if id == "" {
					t.Fatal("expected generated id")
				}
				ids = append(ids, id)
			}
			if ids[2] != "fixed" {
				t.Errorf("expected caller id to be kept, got %s", ids[2])
			}
			if ids[0] == ids[1] {
				t.Error("expected distinct generated ids")
			}

			got, err := s.ListRecommendationsByUser(ctx, "u1", now)
			if err != nil {
				t.Fatal(err)
			}
			order := make([]string, 0, len(got))
			for _, r := range got {
				order = append(order, r.BoothID)
			}
			if fmt.Sprint(order) != "[high mid low]" {
				t.Errorf("expected [high mid low], got %v", order)
			}

			later, err := s.ListRecommendationsByUser(ctx, "u1", now.Add(2*time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if len(later) != 2 {
				t.Errorf("expected the 1h recommendation to expire, got %d rows", len(later))
			}

			expired, err := s.ListRecommendationsByUser(ctx, "u1", now.Add(model.RecommendationTTL))
			if err != nil {
				t.Fatal(err)
			}
			if len(expired) != 0 {
				t.Errorf("expected nothing valid at expiry, got %d rows", len(expired))
			}
		})
	}
}

func TestStore_Stats(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			_ = s.PutBooth(ctx, model.Booth{ID: "b1"})
			_, _, _ = s.AppendInteraction(ctx, model.Interaction{ID: "i1", UserID: "u1"})
			_, _, _ = s.AppendInteraction(ctx, model.Interaction{ID: "i2", UserID: "u1"})
			_, _ = s.MergeProfile(ctx, "u1", nil, nil)
			now := time.Now()
			_, _ = s.InsertRecommendation(ctx, model.Recommendation{UserID: "u1", BoothID: "b1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

			st, err := s.Stats(ctx)
			if err != nil {
				t.Fatal(err)
			}
			want := Stats{Users: 1, Interactions: 2, Booths: 1, Recommendations: 1}
			if st != want {
				t.Errorf("expected %+v, got %+v", want, st)
			}
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			if _, _, err := s.AppendInteraction(ctx, model.Interaction{ID: "i", UserID: "u"}); !errors.Is(err, ErrClosed) {
				t.Errorf("append: expected ErrClosed, got %v", err)
			}
			if _, err := s.ListBooths(ctx); !errors.Is(err, ErrClosed) {
				t.Errorf("list booths: expected ErrClosed, got %v", err)
			}
			if _, err := s.InsertRecommendation(ctx, model.Recommendation{UserID: "u"}); !errors.Is(err, ErrClosed) {
				t.Errorf("insert: expected ErrClosed, got %v", err)
			}
		})
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			const users, perUser = 8, 25
			var wg sync.WaitGroup
			for u := 0; u < users; u++ {
				wg.Add(1)
				go func(u int) {
					defer wg.Done()
					for i := 0; i < perUser; i++ {
						in := model.Interaction{ID: fmt.Sprintf("u%d-i%d", u, i), UserID: fmt.Sprintf("u%d", u)}
						if _, _, err := s.AppendInteraction(ctx, in); err != nil {
							t.Errorf("append: %v", err)
						}
						if _, err := s.MergeProfile(ctx, in.UserID, []string{"go"}, nil); err != nil {
							t.Errorf("merge: %v", err)
						}
					}
				}(u)
			}
			wg.Wait()

			for u := 0; u < users; u++ {
				userID := fmt.Sprintf("u%d", u)
				got, err := s.ListInteractionsByUser(ctx, userID)
				if err != nil {
					t.Fatal(err)
				}
				if len(got) != perUser {
					t.Errorf("%s: expected %d interactions, got %d", userID, perUser, len(got))
				}
				for i := 1; i < len(got); i++ {
					if !got[i].CreatedAt.After(got[i-1].CreatedAt) {
						t.Errorf("%s: CreatedAt not increasing at %d", userID, i)
					}
				}
			}
		})
	}
}
