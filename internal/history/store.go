package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"go.uber.org/zap"
)

// Store persists the daily history as one blob keyed by storage.KeyDailyHistory.
type Store struct {
	kv  storage.Store
	log *zap.Logger
}

func NewStore(kv storage.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log}
}

// Load returns an empty history for a missing or unreadable blob.
func (s *Store) Load(ctx context.Context) (model.DailyHistory, error) {
	raw, err := s.kv.Get(ctx, storage.KeyDailyHistory)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.DailyHistory{}, nil
		}
		return model.DailyHistory{}, fmt.Errorf("load history: %w", err)
	}
	return Decode(raw, s.log), nil
}

func (s *Store) Save(ctx context.Context, h model.DailyHistory) error {
	raw, err := Encode(h)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, map[string][]byte{storage.KeyDailyHistory: raw}); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Record snapshots tasks as today's entry and persists the result. The updated history
// is returned even when saving fails so the caller can keep showing it.
func (s *Store) Record(ctx context.Context, h model.DailyHistory, tasks model.TaskList, today model.Date) (model.DailyHistory, error) {
	next := RecordToday(h, tasks, today)
	if err := s.Save(ctx, next); err != nil {
		return next, err
	}
	return next, nil
}

// LastReviewed returns the date stored under storage.KeyLastReviewedDate.
func (s *Store) LastReviewed(ctx context.Context) (model.Date, bool, error) {
	raw, err := s.kv.Get(ctx, storage.KeyLastReviewedDate)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Date{}, false, nil
		}
		return model.Date{}, false, fmt.Errorf("load last reviewed date: %w", err)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		value = string(raw)
	}
	d, err := model.ParseDate(strings.TrimSpace(value))
	if err != nil {
		s.log.Warn("stored last reviewed date unreadable", zap.ByteString("raw", raw), zap.Error(err))
		return model.Date{}, false, nil
	}
	return d, true, nil
}

func (s *Store) MarkReviewed(ctx context.Context, d model.Date) error {
	raw, err := json.Marshal(d.String())
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, map[string][]byte{storage.KeyLastReviewedDate: raw}); err != nil {
		return fmt.Errorf("save last reviewed date: %w", err)
	}
	return nil
}

type storedSnapshot struct {
	Tasks   []model.SnapshotItem `json:"tasks"`
	AllDone bool                 `json:"allDone"`
}

func Encode(h model.DailyHistory) ([]byte, error) {
	out := make(map[string]storedSnapshot, len(h))
	for d, snap := range h {
		if d.IsZero() {
			continue
		}
		tasks := snap.Tasks
		if tasks == nil {
			tasks = []model.SnapshotItem{}
		}
		out[d.String()] = storedSnapshot{Tasks: tasks, AllDone: snap.Normalize().AllDone}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return raw, nil
}

// Decode parses a stored history blob. Entries with unparseable dates are skipped and
// every AllDone flag is recomputed from the stored items.
func Decode(raw []byte, log *zap.Logger) model.DailyHistory {
	if log == nil {
		log = zap.NewNop()
	}
	out := model.DailyHistory{}
	if len(raw) == 0 {
		return out
	}
	var stored map[string]storedSnapshot
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Warn("stored history unreadable, starting empty", zap.Error(err))
		return out
	}
	for key, snap := range stored {
		d, err := model.ParseDate(key)
		if err != nil {
			log.Warn("dropping history entry with bad date", zap.String("date", key))
			continue
		}
		out[d] = model.DaySnapshot{Date: d, Tasks: snap.Tasks, AllDone: snap.AllDone}.Normalize()
	}
	return out
}
