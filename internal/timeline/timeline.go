// Package timeline turns the flat entry list into filtered, sorted and paginated views.
package timeline

import (
	"slices"
	"strings"
	"time"

	"github.com/jon4hz/moodiary/internal/models"
	"github.com/samber/lo"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// DateLayout is the format of the day filter.
	DateLayout = "2006-01-02"
)

// Order is the sort direction of createdAt.
type Order string

const (
	Newest Order = "desc"
	Oldest Order = "asc"
)

// ParseOrder returns Newest for anything that is not "asc".
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Oldest)) {
		return Oldest
	}
	return Newest
}

// Query selects a page of entries.
type Query struct {
	// User limits the result to one author. Empty means everybody.
	User string
	// Date limits the result to one calendar day in Location, formatted as DateLayout.
	Date     string
	Order    Order
	Offset   int
	Limit    int
	Location *time.Location
}

// Page is one slice of the filtered and sorted entries.
type Page struct {
	Entries    []models.DiaryEntry `json:"entries"`
	Total      int                 `json:"total"`
	HasMore    bool                `json:"hasMore"`
	NextOffset int                 `json:"nextOffset"`
}

// Apply filters, then sorts, then paginates entries. The input is not modified.
func Apply(entries []models.DiaryEntry, q Query) Page {
	loc := q.Location
	if loc == nil {
		loc = time.Local
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	offset := max(q.Offset, 0)

	filtered := lo.Filter(entries, func(e models.DiaryEntry, _ int) bool {
		if q.User != "" && e.Username != q.User {
			return false
		}
		if q.Date != "" && e.CreatedAt.In(loc).Format(DateLayout) != q.Date {
			return false
		}
		return true
	})

	slices.SortStableFunc(filtered, func(a, b models.DiaryEntry) int {
		if q.Order == Oldest {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := len(filtered)
	start := min(offset, total)
	end := min(start+limit, total)
	return Page{
		Entries:    filtered[start:end],
		Total:      total,
		HasMore:    end < total,
		NextOffset: end,
	}
}

// ValidDate reports whether s is a well-formed day filter.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Authors returns the usernames offered as author filter. Admins are not listed.
func Authors(users []models.User) []string {
	names := lo.FilterMap(users, func(u models.User, _ int) (string, bool) {
		return u.Username, !u.IsAdmin
	})
	slices.Sort(names)
	return names
}
