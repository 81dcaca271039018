package timeline

import (
	"slices"
	"time"

	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
)

// ExcerptLength is the number of characters shown before an entry is cut off.
const ExcerptLength = 400

// EntryView is an entry prepared for display to a specific viewer.
type EntryView struct {
	models.DiaryEntry
	MoodEmoji    string `json:"moodEmoji"`
	MoodLabel    string `json:"moodLabel"`
	AvatarColor  string `json:"avatarColor"`
	Excerpt      string `json:"excerpt"`
	Truncated    bool   `json:"truncated"`
	CanEdit      bool   `json:"canEdit"`
	CanDelete    bool   `json:"canDelete"`
	RelativeTime string `json:"relativeTime"`
}

// Decorator builds entry views.
type Decorator struct {
	Translator *i18n.Translator
	Now        func() time.Time
}

// Decorate renders entries for viewer. A nil viewer can neither edit nor delete.
func (d Decorator) Decorate(entries []models.DiaryEntry, users []models.User, viewer *models.User) []EntryView {
	tr := d.Translator
	if tr == nil {
		tr = i18n.New(i18n.DefaultLocale)
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	colors := lo.SliceToMap(users, func(u models.User) (string, string) {
		return u.Username, u.AvatarColor
	})

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		color, ok := colors[e.Username]
		if !ok || color == "" {
			color = models.DefaultAvatarColor
		}
		excerpt, truncated := Excerpt(e.Content, ExcerptLength)
		isAuthor := viewer != nil && viewer.Username == e.Username
		views = append(views, EntryView{
			DiaryEntry:   e,
			MoodEmoji:    e.Mood.Emoji(),
			MoodLabel:    tr.MoodLabel(e.Mood),
			AvatarColor:  color,
			Excerpt:      excerpt,
			Truncated:    truncated,
			CanEdit:      isAuthor,
			CanDelete:    isAuthor || (viewer != nil && viewer.IsAdmin),
			RelativeTime: timediff.TimeDiff(e.CreatedAt, timediff.WithStartTime(now())),
		})
	}
	return views
}

// Excerpt cuts s after n runes.
func Excerpt(s string, n int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]) + "...", true
}

// DayGroup holds the views of one calendar day.
type DayGroup struct {
	Date    string      `json:"date"`
	Entries []EntryView `json:"entries"`
}

// Group buckets views by calendar day in loc. Days are ordered newest first,
// entries keep their order inside a day.
func Group(views []EntryView, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	grouped := lo.GroupBy(views, func(v EntryView) string {
		return v.CreatedAt.In(loc).Format(DateLayout)
	})
	days := lo.Keys(grouped)
	// DateLayout sorts lexically in chronological order
	slices.Sort(days)
	slices.Reverse(days)

	return lo.Map(days, func(day string, _ int) DayGroup {
		return DayGroup{Date: day, Entries: grouped[day]}
	})
}
