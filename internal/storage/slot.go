package storage

import (
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/moodiary/internal/models"
)

// SessionSlot is the per-client place the logged in user is remembered in.
type SessionSlot interface {
	Load() ([]byte, bool)
	Save(data []byte) error
	Clear() error
}

// MemorySlot is a SessionSlot kept in a byte slice.
type MemorySlot struct {
	data []byte
}

func (s *MemorySlot) Load() ([]byte, bool) {
	return s.data, s.data != nil
}

func (s *MemorySlot) Save(data []byte) error {
	s.data = data
	return nil
}

func (s *MemorySlot) Clear() error {
	s.data = nil
	return nil
}

// CurrentUser reads the user stored in slot. Absent or unreadable slots yield nil.
func (s *Storage) CurrentUser(slot SessionSlot) *models.User {
	data, ok := slot.Load()
	if !ok || len(data) == 0 {
		return nil
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil || user.Username == "" {
		log.Warn("Ignoring corrupt session slot", "error", err)
		return nil
	}
	return &user
}

// LogoutUser forgets the current user. The backend is not contacted.
func (s *Storage) LogoutUser(slot SessionSlot) error {
	return slot.Clear()
}
