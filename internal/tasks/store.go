package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/tabdo/internal/model"
	"github.com/sandeepkv93/tabdo/internal/storage"
	"go.uber.org/zap"
)

// Store loads and saves the task list as a single blob under storage.KeyTasks.
type Store struct {
	kv    storage.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewStore(kv storage.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kv:    kv,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Load returns an empty list when nothing is stored or the stored blob is unreadable.
// Only backend failures are returned as errors.
func (s *Store) Load(ctx context.Context) (model.TaskList, error) {
	raw, err := s.kv.Get(ctx, storage.KeyTasks)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.TaskList{}, nil
		}
		return model.TaskList{}, fmt.Errorf("load tasks: %w", err)
	}
	return Decode(raw, s.log), nil
}

func (s *Store) Save(ctx context.Context, list model.TaskList) error {
	if list == nil {
		list = model.TaskList{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.kv.Set(ctx, map[string][]byte{storage.KeyTasks: raw}); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Add appends a new task with a fresh id and the store's clock.
func (s *Store) Add(list model.TaskList, text string) (model.TaskList, model.Task, error) {
	return list.Add(s.newID(), text, s.now())
}

// Decode parses a stored task blob, dropping entries that do not validate.
// Anything unreadable becomes an empty list.
func Decode(raw []byte, log *zap.Logger) model.TaskList {
	if log == nil {
		log = zap.NewNop()
	}
	if len(raw) == 0 {
		return model.TaskList{}
	}
	var decoded model.TaskList
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.Warn("stored tasks unreadable, starting empty", zap.Error(err))
		return model.TaskList{}
	}
	out := make(model.TaskList, 0, len(decoded))
	seen := make(map[string]bool, len(decoded))
	for _, t := range decoded {
		if err := t.Validate(); err != nil || seen[t.ID] {
			log.Warn("dropping malformed stored task", zap.String("id", t.ID), zap.Error(err))
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
