// Package i18n holds the user-facing strings of moodiary in Vietnamese and English.
package i18n

import (
	"fmt"
	"strings"
	"time"

	"github.com/jon4hz/moodiary/internal/models"
)

// Locale identifies a message catalog.
type Locale string

const (
	Vietnamese Locale = "vi"
	English    Locale = "en"
)

// DefaultLocale is used when nothing else is configured.
const DefaultLocale = Vietnamese

// Key identifies a message.
type Key string

const (
	DuplicateUsername Key = "duplicate_username"
	RegisterSuccess   Key = "register_success"
	RegisterAdmin     Key = "register_admin"
	ServerError       Key = "server_error"
	UserNotFound      Key = "user_not_found"
	ValidationEmpty   Key = "validation_empty"
	UsernameEmpty     Key = "username_empty"
	EntryNotFound     Key = "entry_not_found"
	Forbidden         Key = "forbidden"
	LoginRequired     Key = "login_required"
	AdminRequired     Key = "admin_required"
	ClearConfirm      Key = "clear_confirm"
	ClearDone         Key = "clear_done"
	SeedDone          Key = "seed_done"
	SamplePrefix      Key = "sample_prefix"
	DefaultTitle      Key = "default_title"
)

var catalogs = map[Locale]map[Key]string{
	Vietnamese: {
		DuplicateUsername: "Tên này đã có người dùng rồi!",
		RegisterSuccess:   "Đăng ký thành công!",
		RegisterAdmin:     "Đăng ký thành công! Bạn là quản trị viên đầu tiên.",
		ServerError:       "Lỗi kết nối server: ",
		UserNotFound:      "Không tìm thấy người dùng này!",
		ValidationEmpty:   "Hãy viết gì đó vào nhật ký nhé!",
		UsernameEmpty:     "Hãy nhập tên của bạn nhé!",
		EntryNotFound:     "Không tìm thấy trang nhật ký này!",
		Forbidden:         "Bạn không có quyền làm việc này!",
		LoginRequired:     "Bạn cần đăng nhập trước!",
		AdminRequired:     "Chỉ quản trị viên mới làm được việc này!",
		ClearConfirm:      "Hãy xác nhận trước khi xoá toàn bộ dữ liệu!",
		ClearDone:         "Đã xoá toàn bộ dữ liệu!",
		SeedDone:          "Đã tạo dữ liệu mẫu!",
		SamplePrefix:      "[Mẫu] ",
		DefaultTitle:      "Ngày %s",
	},
	English: {
		DuplicateUsername: "This username is already taken!",
		RegisterSuccess:   "Registration successful!",
		RegisterAdmin:     "Registration successful! You are the first administrator.",
		ServerError:       "Server connection error: ",
		UserNotFound:      "User not found!",
		ValidationEmpty:   "Please write something in your diary!",
		UsernameEmpty:     "Please enter your name!",
		EntryNotFound:     "Diary entry not found!",
		Forbidden:         "You are not allowed to do this!",
		LoginRequired:     "Please log in first!",
		AdminRequired:     "Only administrators can do this!",
		ClearConfirm:      "Please confirm before clearing all data!",
		ClearDone:         "All data cleared!",
		SeedDone:          "Sample data created!",
		SamplePrefix:      "[Sample] ",
		DefaultTitle:      "Day %s",
	},
}

var moodLabels = map[Locale]map[models.Mood]string{
	Vietnamese: {
		models.MoodRainbow:  "Tuyệt Vời",
		models.MoodStarry:   "Hy Vọng",
		models.MoodSunny:    "Vui Vẻ",
		models.MoodFlower:   "Hạnh Phúc",
		models.MoodCloudy:   "Bình Yên",
		models.MoodLeaf:     "Mệt Mỏi",
		models.MoodRainy:    "Buồn",
		models.MoodStormy:   "Giông Bão",
		models.MoodThinking: "Suy Tư",
	},
	English: {
		models.MoodRainbow:  "Wonderful",
		models.MoodStarry:   "Hopeful",
		models.MoodSunny:    "Happy",
		models.MoodFlower:   "Joyful",
		models.MoodCloudy:   "Calm",
		models.MoodLeaf:     "Tired",
		models.MoodRainy:    "Sad",
		models.MoodStormy:   "Stormy",
		models.MoodThinking: "Thinking",
	},
}

// ParseLocale returns the locale for s, or false if it is not supported.
func ParseLocale(s string) (Locale, bool) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	_, ok := catalogs[l]
	return l, ok
}

// Translator renders messages for a single locale.
type Translator struct {
	locale Locale
}

// New returns a translator for the given locale, falling back to the default locale.
func New(locale Locale) *Translator {
	if _, ok := catalogs[locale]; !ok {
		locale = DefaultLocale
	}
	return &Translator{locale: locale}
}

// Locale returns the locale of the translator.
func (t *Translator) Locale() Locale {
	return t.locale
}

// T returns the message for key. Unknown keys are returned as-is.
func (t *Translator) T(key Key) string {
	if msg, ok := catalogs[t.locale][key]; ok {
		return msg
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return string(key)
}

// ServerError prefixes err with the localized server error message.
func (t *Translator) ServerError(err error) string {
	if err == nil {
		return strings.TrimSpace(t.T(ServerError))
	}
	return t.T(ServerError) + err.Error()
}

// MoodLabel returns the localized label of m.
func (t *Translator) MoodLabel(m models.Mood) string {
	if label, ok := moodLabels[t.locale][m]; ok {
		return label
	}
	return string(m)
}

// DefaultTitle builds the title used for entries saved without one.
func (t *Translator) DefaultTitle(date time.Time) string {
	return fmt.Sprintf(t.T(DefaultTitle), date.Format("02/01/2006"))
}
