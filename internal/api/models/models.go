// Package models holds the request and response bodies of the JSON API.
package models

import (
	"strings"
	"time"

	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/timeline"
)

// UsernameRequest is the body of register and login.
type UsernameRequest struct {
	Username string `json:"username"`
}

// EntryRequest is the body of a new entry. Only content is required.
type EntryRequest struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Mood      string     `json:"mood"`
	CreatedAt *time.Time `json:"createdAt"`
}

// PatchRequest is the body of a partial entry update. Absent fields stay unchanged.
type PatchRequest struct {
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	Mood      *string    `json:"mood"`
	CreatedAt *time.Time `json:"createdAt"`
}

// ToEntryPatch validates the mood and converts the request to a storage patch.
func (r PatchRequest) ToEntryPatch() (models.EntryPatch, error) {
	patch := models.EntryPatch{
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if r.Mood != nil {
		mood, err := models.ParseMood(*r.Mood)
		if err != nil {
			return models.EntryPatch{}, err
		}
		patch.Mood = &mood
	}
	return patch, nil
}

// ContentBlank reports whether the patch would empty the entry content.
func (r PatchRequest) ContentBlank() bool {
	return r.Content != nil && strings.TrimSpace(*r.Content) == ""
}

// ClearRequest confirms a destructive clear.
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

// MoodItem describes one selectable mood.
type MoodItem struct {
	ID    models.Mood `json:"id"`
	Emoji string      `json:"emoji"`
	Label string      `json:"label"`
}

// ToMoodItems lists all moods with their localized labels.
func ToMoodItems(tr *i18n.Translator) []MoodItem {
	moods := models.AllMoods()
	items := make([]MoodItem, len(moods))
	for i, m := range moods {
		items[i] = MoodItem{ID: m, Emoji: m.Emoji(), Label: tr.MoodLabel(m)}
	}
	return items
}

// EntriesResponse is one page of the timeline.
type EntriesResponse struct {
	Entries    []timeline.EntryView `json:"entries"`
	Days       []timeline.DayGroup  `json:"days"`
	Total      int                  `json:"total"`
	HasMore    bool                 `json:"hasMore"`
	NextOffset int                  `json:"nextOffset"`
}

// FeedResponse is the full snapshot a client reloads after a mutation.
type FeedResponse struct {
	Users   []models.User        `json:"users"`
	Authors []string             `json:"authors"`
	Entries []timeline.EntryView `json:"entries"`
}

// StatusResponse is returned to admins by the status endpoint.
type StatusResponse struct {
	Connection models.ConnectionType `json:"connection"`
	Users      int                   `json:"users"`
	Admins     int                   `json:"admins"`
	Entries    int                   `json:"entries"`
	ByMood     map[models.Mood]int   `json:"byMood"`
	// StoreSize is the human readable size of the local store, if it reports one.
	StoreSize string     `json:"storeSize,omitempty"`
	Disk      *DiskUsage `json:"disk,omitempty"`
}

// DiskUsage describes the filesystem holding the local data directory.
type DiskUsage struct {
	Path        string  `json:"path"`
	Total       string  `json:"total"`
	Used        string  `json:"used"`
	Free        string  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}
