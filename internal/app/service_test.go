package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/boothwise/internal/adapters/mq/queue"
	"github.com/okian/boothwise/internal/adapters/repository"
	service "github.com/okian/boothwise/internal/app"
	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testCatalog() []model.Booth {
	return []model.Booth{
		{ID: "visited", Name: "Visited", Tags: []string{"ai"}},
		{ID: "acme", Name: "Acme", Description: "We build AI copilots", Tags: []string{"ai", "robotics"}, LookingFor: []string{"python"}},
		{ID: "cloudco", Name: "CloudCo", Tags: []string{"cloud"}, LookingFor: []string{"go"}},
	}
}

// failingStore rejects every recommendation insert.
type failingStore struct {
	*repository.MemoryStore
}

func (f failingStore) InsertRecommendation(context.Context, model.Recommendation) (string, error) {
	return "", errors.New("disk full")
}

// gatedStore holds every append until gate is closed.
type gatedStore struct {
	*repository.MemoryStore
	gate chan struct{}
}

func (g gatedStore) AppendInteraction(ctx context.Context, in model.Interaction) (model.Interaction, int, error) {
	<-g.gate
	return g.MemoryStore.AppendInteraction(ctx, in)
}

// recordingStore remembers every interaction it stored.
type recordingStore struct {
	*repository.MemoryStore
	mu     sync.Mutex
	stored []string
}

func (r *recordingStore) AppendInteraction(ctx context.Context, in model.Interaction) (model.Interaction, int, error) {
	out, count, err := r.MemoryStore.AppendInteraction(ctx, in)
	if err == nil {
		r.mu.Lock()
		r.stored = append(r.stored, out.ID)
		r.mu.Unlock()
	}
	return out, count, err
}

func (r *recordingStore) storedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stored...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(500),
			service.WithDedupeSize(250),
			service.WithBreaker(3, time.Second),
		)

		Convey("Then it should report its configuration before start", func() {
			stats := svc.GetStats(context.Background())
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 500)
			So(stats["dedupeSize"], ShouldEqual, 250)
		})

		Convey("Then calls before Start should fail", func() {
			_, err := svc.Submit(context.Background(), model.Interaction{UserID: "u1", BoothID: "b1"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Booths(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service with a catalog", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := service.New(service.WithWorkerCount(1), service.WithCatalog(testCatalog()))

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil) // idempotent

			Convey("Then the catalog should be seeded in order", func() {
				booths, err := svc.Booths(ctx)
				So(err, ShouldBeNil)
				So(len(booths), ShouldEqual, 3)
				So(booths[1].ID, ShouldEqual, "acme")
			})

			Convey("And stopping it", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats(ctx)["started"], ShouldEqual, false)
				})
			})

			Reset(func() { _ = svc.Stop(ctx) })
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the interaction misses a user", func() {
			_, err := svc.Submit(ctx, model.Interaction{BoothID: "b1"})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidInteraction), ShouldBeTrue)
			})
		})

		Convey("When the interaction has no id", func() {
			ack, err := svc.Submit(ctx, model.Interaction{UserID: "u1", BoothID: "b1"})

			Convey("Then one should be generated", func() {
				So(err, ShouldBeNil)
				So(ack.InteractionID, ShouldNotBeEmpty)
				So(ack.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When the ids carry surrounding spaces", func() {
			ack, err := svc.Submit(ctx, model.Interaction{ID: " i-space ", UserID: " u1 ", BoothID: " b1 "})

			Convey("Then the trimmed user can be read back", func() {
				So(err, ShouldBeNil)
				So(ack.InteractionID, ShouldEqual, "i-space")
				So(waitFor(5*time.Second, func() bool {
					p, err := svc.Profile(ctx, "u1")
					return err == nil && p.InteractionCount == 1
				}), ShouldBeTrue)
			})
		})

		Convey("When the same id is submitted twice", func() {
			in := model.Interaction{ID: "i-dup", UserID: "u1", BoothID: "b1"}
			first, err1 := svc.Submit(ctx, in)
			second, err2 := svc.Submit(ctx, in)

			Convey("Then the second should be a duplicate", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(second.InteractionID, ShouldEqual, "i-dup")
			})
		})
	})
}

func TestService_SubmitBackpressure(t *testing.T) {
	Convey("Given a service whose queue cannot drain", t, func() {
		ctx := context.Background()
		store := gatedStore{MemoryStore: repository.NewMemoryStore(ctx), gate: make(chan struct{})}
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(1), service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() {
			close(store.gate)
			_ = svc.Stop(ctx)
		}()

		Convey("When many interactions arrive at once", func() {
			var full error
			for i := 0; i < 1000 && full == nil; i++ {
				_, full = svc.Submit(ctx, model.Interaction{UserID: "u1", BoothID: "b1"})
			}

			Convey("Then the queue should eventually push back", func() {
				So(errors.Is(full, queue.ErrFull), ShouldBeTrue)
			})
		})
	})
}

func TestService_Process(t *testing.T) {
	Convey("Given a started service over a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithStore(store),
			service.WithCatalog(testCatalog()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		first := model.Interaction{
			ID:                 "i1",
			UserID:             "u1",
			BoothID:            "visited",
			Tags:               []string{"ai"},
			MentionedSkills:    []string{"python"},
			MentionedInterests: []string{"copilots"},
		}.WithDefaults()

		Convey("When the first interaction is processed", func() {
			So(svc.Process(ctx, first), ShouldBeNil)

			Convey("Then a recommendation run should persist the match", func() {
				recs, err := svc.Recommendations(ctx, "u1")
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].BoothID, ShouldEqual, "acme")
				So(recs[0].Score, ShouldEqual, 60)
				So(recs[0].BasedOn, ShouldEqual, "ai")
				So(recs[0].Reasoning, ShouldResemble, []string{
					`Matches your interest in "ai"`,
					`They're looking for "python"`,
					`Aligned with your interest in "copilots"`,
				})
				So(recs[0].ExpiresAt.Sub(recs[0].CreatedAt), ShouldEqual, model.RecommendationTTL)
			})

			Convey("Then the profile should hold the mentioned terms", func() {
				p, err := svc.Profile(ctx, "u1")
				So(err, ShouldBeNil)
				So(p.Skills, ShouldResemble, []string{"python"})
				So(p.Interests, ShouldResemble, []string{"copilots"})
				So(p.InteractionCount, ShouldEqual, 1)
			})
		})

		Convey("When interactions keep arriving", func() {
			for _, id := range []string{"i1", "i2", "i3", "i4"} {
				in := first
				in.ID = id
				So(svc.Process(ctx, in), ShouldBeNil)
			}

			Convey("Then runs should follow the 1, 2, 4 cadence", func() {
				So(svc.GetStats(ctx)["recommendationRuns"], ShouldEqual, int64(3))
			})
		})
	})

	Convey("Given a service whose recommendation writes fail", t, func() {
		ctx := context.Background()
		store := failingStore{repository.NewMemoryStore(ctx)}
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithStore(store),
			service.WithCatalog(testCatalog()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When an interaction triggers a run", func() {
			err := svc.Process(ctx, model.Interaction{ID: "i1", UserID: "u1", BoothID: "visited", Tags: []string{"ai"}})

			Convey("Then the interaction should still succeed", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats(ctx)
				So(stats["recommendationErrs"], ShouldEqual, int64(1))
				So(stats["interactions"], ShouldEqual, 1)
			})
		})

		Convey("When a run is forced", func() {
			So(svc.Process(ctx, model.Interaction{ID: "i1", UserID: "u1", BoothID: "visited", Tags: []string{"ai"}}), ShouldBeNil)
			out, err := svc.Regenerate(ctx, "u1")

			Convey("Then the error and the ranking should both be returned", func() {
				So(err, ShouldNotBeNil)
				So(len(out.Recommendations), ShouldEqual, 1)
				So(len(out.IDs), ShouldEqual, 0)
			})
		})
	})
}

func TestService_StopDrainsQueue(t *testing.T) {
	Convey("Given a service whose start context has already ended", t, func() {
		startCtx, cancel := context.WithCancel(context.Background())
		store := &recordingStore{MemoryStore: repository.NewMemoryStore(context.Background())}
		svc := service.New(service.WithWorkerCount(2), service.WithStore(store))
		So(svc.Start(startCtx), ShouldBeNil)
		cancel()

		Convey("When an interaction is accepted and the service stops", func() {
			ctx := context.Background()
			ack, err := svc.Submit(ctx, model.Interaction{ID: "late", UserID: "u1", BoothID: "b1"})
			So(err, ShouldBeNil)
			So(ack.Duplicate, ShouldBeFalse)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the interaction should still be stored", func() {
				So(store.storedIDs(), ShouldResemble, []string{"late"})
			})
		})
	})
}

func TestService_ProcessStoredDuplicate(t *testing.T) {
	Convey("Given a store that already holds an interaction", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1), service.WithCatalog(testCatalog()))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		in := model.Interaction{ID: "i1", UserID: "u1", BoothID: "visited", Tags: []string{"ai"}}.WithDefaults()
		So(svc.Process(ctx, in), ShouldBeNil)

		Convey("When the same interaction is processed again", func() {
			So(svc.Process(ctx, in), ShouldBeNil)

			Convey("Then neither the profile nor the run count should move", func() {
				p, err := svc.Profile(ctx, "u1")
				So(err, ShouldBeNil)
				So(p.InteractionCount, ShouldEqual, 1)
				stats := svc.GetStats(ctx)
				So(stats["interactions"], ShouldEqual, 1)
				So(stats["recommendationRuns"], ShouldEqual, int64(1))
			})
		})
	})
}

func TestService_PutBooth(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a booth without id is stored", func() {
			err := svc.PutBooth(ctx, model.Booth{Name: "nameless"})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidBooth), ShouldBeTrue)
			})
		})

		Convey("When a booth is stored", func() {
			So(svc.PutBooth(ctx, model.Booth{ID: "b1", Name: "B1"}), ShouldBeNil)

			Convey("Then it should be listed with empty term lists", func() {
				booths, err := svc.Booths(ctx)
				So(err, ShouldBeNil)
				So(len(booths), ShouldEqual, 1)
				So(booths[0].Tags, ShouldNotBeNil)
				So(booths[0].LookingFor, ShouldNotBeNil)
			})
		})

		Convey("When an unknown profile is requested", func() {
			_, err := svc.Profile(ctx, "ghost")

			Convey("Then it should be not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
