package local

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/moodiary/internal/kv"
)

// KVSlot keeps the current user under CurrentUserKey of a key-value store.
// It is the session slot of command line tools that run against a local store.
type KVSlot struct {
	store kv.Store
}

// NewKVSlot returns a slot persisted in store.
func NewKVSlot(store kv.Store) *KVSlot {
	return &KVSlot{store: store}
}

func (s *KVSlot) Load() ([]byte, bool) {
	data, err := s.store.Get(context.Background(), CurrentUserKey)
	if err != nil {
		log.Error("failed to read current user", "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}

func (s *KVSlot) Save(data []byte) error {
	return s.store.Set(context.Background(), CurrentUserKey, data)
}

func (s *KVSlot) Clear() error {
	return s.store.Delete(context.Background(), CurrentUserKey)
}
