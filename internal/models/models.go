package models

import (
	"math/rand/v2"
	"time"
)

// ConnectionType reports which persistence backend serves the process.
type ConnectionType string

const (
	ConnectionRemote ConnectionType = "REMOTE"
	ConnectionLocal  ConnectionType = "LOCAL"
)

// User is a diary author. The username is the only credential.
type User struct {
	Username    string `json:"username" gorm:"column:username;primaryKey"`
	IsAdmin     bool   `json:"isAdmin" gorm:"column:isAdmin;not null;default:false"`
	AvatarColor string `json:"avatarColor" gorm:"column:avatarColor"`
}

func (User) TableName() string { return "users" }

// DiaryEntry is a single mood-tagged diary record.
type DiaryEntry struct {
	ID        string    `json:"id" gorm:"column:id;primaryKey"`
	Username  string    `json:"username" gorm:"column:username;index;not null"`
	Title     string    `json:"title" gorm:"column:title"`
	Content   string    `json:"content" gorm:"column:content"`
	Mood      Mood      `json:"mood" gorm:"column:mood"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:createdAt;autoCreateTime:false"`
}

func (DiaryEntry) TableName() string { return "entries" }

// EntryPatch holds the editable fields of an entry. Nil fields are left as they are.
type EntryPatch struct {
	Title     *string    `json:"title,omitempty"`
	Content   *string    `json:"content,omitempty"`
	Mood      *Mood      `json:"mood,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p EntryPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Mood == nil && p.CreatedAt == nil
}

// Apply copies the non-nil fields of the patch onto e.
func (p EntryPatch) Apply(e *DiaryEntry) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.Mood != nil {
		e.Mood = *p.Mood
	}
	if p.CreatedAt != nil {
		e.CreatedAt = *p.CreatedAt
	}
}

// Palette is the set of pastel avatar colors handed out at registration.
var Palette = []string{
	"bg-red-100",
	"bg-orange-100",
	"bg-amber-100",
	"bg-yellow-100",
	"bg-lime-100",
	"bg-green-100",
	"bg-emerald-100",
	"bg-teal-100",
	"bg-cyan-100",
	"bg-sky-100",
	"bg-blue-100",
	"bg-indigo-100",
	"bg-violet-100",
	"bg-purple-100",
	"bg-fuchsia-100",
	"bg-pink-100",
	"bg-rose-100",
}

// DefaultAvatarColor is shown for authors that are no longer known.
const DefaultAvatarColor = "bg-stone-200"

// RandomAvatarColor picks a palette color uniformly at random.
// A nil r uses the global source.
func RandomAvatarColor(r *rand.Rand) string {
	if r == nil {
		return Palette[rand.IntN(len(Palette))]
	}
	return Palette[r.IntN(len(Palette))]
}
