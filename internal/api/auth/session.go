package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// Slot keeps the current user in the session cookie of one browser.
type Slot struct {
	session sessions.Session
}

// NewSlot returns the slot of the request's session.
func NewSlot(c *gin.Context) *Slot {
	return &Slot{session: sessions.Default(c)}
}

func (s *Slot) Load() ([]byte, bool) {
	v, ok := s.session.Get(currentUserKey).(string)
	if !ok || v == "" {
		return nil, false
	}
	return []byte(v), true
}

func (s *Slot) Save(data []byte) error {
	s.session.Set(currentUserKey, string(data))
	return s.session.Save()
}

func (s *Slot) Clear() error {
	s.session.Delete(currentUserKey)
	return s.session.Save()
}
