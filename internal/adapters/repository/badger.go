package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/boothwise/internal/domain/identity"
	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
)

const backendBadger = "badger"

// Key prefixes for BadgerDB storage. User and booth IDs are query-escaped so
// a ':' inside an ID cannot collide with another prefix.
const (
	interactionKeyPrefix    = "interaction:"
	interactionIDKeyPrefix  = "interaction_id:"
	boothKeyPrefix          = "booth:"
	profileKeyPrefix        = "profile:"
	recommendationKeyPrefix = "recommendation:"
	boothSequenceKey        = "seq:booth"
)

const (
	boothSequenceBandwidth = 64
	maxConflictRetries     = 3
)

// boothRecord keeps the catalog position next to the booth.
type boothRecord struct {
	Seq   uint64      `json:"seq"`
	Booth model.Booth `json:"booth"`
}

// BadgerStore is a Store persisted in BadgerDB.
type BadgerStore struct {
	db   *badger.DB
	seq  *badger.Sequence
	opts storeOptions

	// appendMu serializes appends so CreatedAt follows commit order.
	appendMu    sync.Mutex
	lastCreated time.Time

	closed   atomic.Bool
	reporter *reporter
}

// NewBadgerStore opens (or creates) a BadgerDB at dir. An empty dir opens an
// in-memory database.
func NewBadgerStore(ctx context.Context, dir string, opts ...Option) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", dir, err)
	}

	seq, err := db.GetSequence([]byte(boothSequenceKey), boothSequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("booth sequence: %w", err)
	}

	s := &BadgerStore{db: db, seq: seq, opts: newStoreOptions(opts)}
	s.reporter = startReporter(ctx, s.opts.metricsUpdateInterval, s, s.opts.logger)
	s.opts.logger.Info(ctx, "badger store opened",
		logger.String("dir", dir),
		logger.Bool("inMemory", dir == ""),
	)
	return s, nil
}

func keyPart(s string) string {
	return url.QueryEscape(s)
}

func interactionPrefix(userID string) []byte {
	return []byte(interactionKeyPrefix + keyPart(userID) + ":")
}

func interactionKey(in *model.Interaction) []byte {
	return []byte(fmt.Sprintf("%s%s:%016x:%s",
		interactionKeyPrefix, keyPart(in.UserID), in.CreatedAt.UnixNano(), keyPart(in.ID)))
}

// interactionIDKey indexes an interaction ID to its record key.
func interactionIDKey(id string) []byte {
	return []byte(interactionIDKeyPrefix + keyPart(id))
}

func boothKey(id string) []byte {
	return []byte(boothKeyPrefix + keyPart(id))
}

func profileKey(userID string) []byte {
	return []byte(profileKeyPrefix + keyPart(userID))
}

func recommendationPrefix(userID string) []byte {
	return []byte(recommendationKeyPrefix + keyPart(userID) + ":")
}

func (s *BadgerStore) AppendInteraction(_ context.Context, in model.Interaction) (model.Interaction, int, error) {
	defer observe(backendBadger, "append_interaction", time.Now())
	if s.closed.Load() {
		return model.Interaction{}, 0, ErrClosed
	}
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.ID) == "" {
		return model.Interaction{}, 0, fmt.Errorf("%w: interaction needs id and user_id", ErrInvalid)
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	in.CreatedAt = nextTimestamp(s.opts.now(), s.lastCreated)
	data, err := json.Marshal(&in)
	if err != nil {
		return model.Interaction{}, 0, fmt.Errorf("marshal interaction: %w", err)
	}

	count := 0
	var existing model.Interaction
	err = s.db.Update(func(txn *badger.Txn) error {
		found, err := getInteractionByID(txn, in.ID, &existing)
		if err != nil {
			return err
		}
		if found {
			count = countPrefix(txn, interactionPrefix(existing.UserID))
			return ErrDuplicate
		}

		key := interactionKey(&in)
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set interaction: %w", err)
		}
		if err := txn.Set(interactionIDKey(in.ID), key); err != nil {
			return fmt.Errorf("set interaction index: %w", err)
		}
		count = countPrefix(txn, interactionPrefix(in.UserID))
		return nil
	})
	if errors.Is(err, ErrDuplicate) {
		return existing, count, fmt.Errorf("interaction %s: %w", in.ID, ErrDuplicate)
	}
	if err != nil {
		return model.Interaction{}, 0, err
	}

	s.lastCreated = in.CreatedAt
	return in, count, nil
}

// getInteractionByID loads the interaction stored under id into dst. It
// reports false when the ID has not been stored.
func getInteractionByID(txn *badger.Txn, id string, dst *model.Interaction) (bool, error) {
	item, err := txn.Get(interactionIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get interaction index: %w", err)
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return false, fmt.Errorf("read interaction index: %w", err)
	}

	rec, err := txn.Get(key)
	if err != nil {
		return false, fmt.Errorf("get interaction %s: %w", id, err)
	}
	err = rec.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
	if err != nil {
		return false, fmt.Errorf("unmarshal interaction: %w", err)
	}
	return true, nil
}

func (s *BadgerStore) ListInteractionsByUser(_ context.Context, userID string) ([]model.Interaction, error) {
	defer observe(backendBadger, "list_interactions", time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}

	out := make([]model.Interaction, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, interactionPrefix(userID), func(val []byte) error {
			var in model.Interaction
			if err := json.Unmarshal(val, &in); err != nil {
				return fmt.Errorf("unmarshal interaction: %w", err)
			}
			out = append(out, in)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) PutBooth(_ context.Context, b model.Booth) error {
	defer observe(backendBadger, "put_booth", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: booth needs an id", ErrInvalid)
	}

	return s.updateWithRetry(func(txn *badger.Txn) error {
		rec := boothRecord{Booth: b}
		existing, err := getBoothRecord(txn, b.ID)
		switch {
		case err == nil:
			rec.Seq = existing.Seq
		case errors.Is(err, ErrNotFound):
			if rec.Seq, err = s.seq.Next(); err != nil {
				return fmt.Errorf("booth sequence: %w", err)
			}
		default:
			return err
		}

		data, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshal booth: %w", err)
		}
		return txn.Set(boothKey(b.ID), data)
	})
}

func (s *BadgerStore) GetBooth(_ context.Context, id string) (model.Booth, error) {
	if s.closed.Load() {
		return model.Booth{}, ErrClosed
	}

	var rec boothRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getBoothRecord(txn, id)
		return err
	})
	if err != nil {
		return model.Booth{}, err
	}
	return rec.Booth, nil
}

func getBoothRecord(txn *badger.Txn, id string) (boothRecord, error) {
	var rec boothRecord
	item, err := txn.Get(boothKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, fmt.Errorf("booth %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get booth: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func (s *BadgerStore) ListBooths(_ context.Context) ([]model.Booth, error) {
	defer observe(backendBadger, "list_booths", time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var recs []boothRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(boothKeyPrefix), func(val []byte) error {
			var rec boothRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("unmarshal booth: %w", err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortBoothRecords(recs)
	out := make([]model.Booth, len(recs))
	for i := range recs {
		out[i] = recs[i].Booth
	}
	return out, nil
}

func (s *BadgerStore) GetProfile(_ context.Context, userID string) (model.Profile, error) {
	if s.closed.Load() {
		return model.Profile{}, ErrClosed
	}

	var p model.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getProfile(txn, userID)
		return err
	})
	return p, err
}

func getProfile(txn *badger.Txn, userID string) (model.Profile, error) {
	var p model.Profile
	item, err := txn.Get(profileKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return p, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("get profile: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	return p, err
}

func (s *BadgerStore) MergeProfile(_ context.Context, userID string, skills, interests []string) (model.Profile, error) {
	defer observe(backendBadger, "merge_profile", time.Now())
	if s.closed.Load() {
		return model.Profile{}, ErrClosed
	}

	var merged model.Profile
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		p, err := getProfile(txn, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		p.UserID = userID
		p = identity.Merge(p, skills, interests)
		p.UpdatedAt = s.opts.now()

		data, err := json.Marshal(&p)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		if err := txn.Set(profileKey(userID), data); err != nil {
			return fmt.Errorf("set profile: %w", err)
		}
		merged = p
		return nil
	})
	return merged, err
}

// InsertRecommendation stores rec with a badger TTL matching its expiry, so
// expired rows are eventually dropped by compaction.
func (s *BadgerStore) InsertRecommendation(_ context.Context, rec model.Recommendation) (string, error) {
	defer observe(backendBadger, "insert_recommendation", time.Now())
	if s.closed.Load() {
		return "", ErrClosed
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	data, err := json.Marshal(&rec)
	if err != nil {
		return "", fmt.Errorf("marshal recommendation: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := append(recommendationPrefix(rec.UserID), keyPart(rec.ID)...)
		entry := badger.NewEntry(key, data)
		if ttl := rec.ExpiresAt.Sub(s.opts.now()); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return "", fmt.Errorf("set recommendation: %w", err)
	}
	return rec.ID, nil
}

func (s *BadgerStore) ListRecommendationsByUser(_ context.Context, userID string, now time.Time) ([]model.Recommendation, error) {
	defer observe(backendBadger, "list_recommendations", time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}

	out := make([]model.Recommendation, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, recommendationPrefix(userID), func(val []byte) error {
			var rec model.Recommendation
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("unmarshal recommendation: %w", err)
			}
			if !rec.Expired(now) {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRecommendations(out)
	return out, nil
}

func (s *BadgerStore) Stats(_ context.Context) (Stats, error) {
	if s.closed.Load() {
		return Stats{}, ErrClosed
	}

	var st Stats
	err := s.db.View(func(txn *badger.Txn) error {
		st.Users = countPrefix(txn, []byte(profileKeyPrefix))
		st.Interactions = countPrefix(txn, []byte(interactionKeyPrefix))
		st.Booths = countPrefix(txn, []byte(boothKeyPrefix))
		st.Recommendations = countPrefix(txn, []byte(recommendationKeyPrefix))
		return nil
	})
	return st, err
}

// Close stops background work, releases the booth sequence and closes the
// database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.reporter.stop()

	var errs []error
	if err := s.seq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release booth sequence: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close badger: %w", err))
	}
	return errors.Join(errs...)
}

// updateWithRetry runs fn in a read-write transaction, retrying when a
// concurrent writer touched the same keys.
func (s *BadgerStore) updateWithRetry(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func scanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

func countPrefix(txn *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n
}
