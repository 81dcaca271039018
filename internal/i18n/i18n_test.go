package i18n

import (
	"errors"
	"testing"
	"time"

	"github.com/jon4hz/moodiary/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCatalogsComplete(t *testing.T) {
	for locale, msgs := range catalogs {
		for key := range catalogs[DefaultLocale] {
			assert.Contains(t, msgs, key, "locale %s", locale)
		}
		for _, m := range models.AllMoods() {
			assert.Contains(t, moodLabels[locale], m, "locale %s", locale)
		}
	}
}

func TestTranslator(t *testing.T) {
	vi := New(Vietnamese)
	en := New(English)
	unknown := New(Locale("fr"))

	assert.Equal(t, "Tên này đã có người dùng rồi!", vi.T(DuplicateUsername))
	assert.Equal(t, "This username is already taken!", en.T(DuplicateUsername))
	assert.Equal(t, Vietnamese, unknown.Locale())
	assert.Equal(t, "nope", string(vi.T(Key("nope"))))

	assert.Equal(t, "Tuyệt Vời", vi.MoodLabel(models.MoodRainbow))
	assert.Equal(t, "Thinking", en.MoodLabel(models.MoodThinking))
	assert.Equal(t, "weird", en.MoodLabel(models.Mood("weird")))
}

func TestDefaultTitle(t *testing.T) {
	d := time.Date(2024, 2, 5, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "Ngày 05/02/2024", New(Vietnamese).DefaultTitle(d))
	assert.Equal(t, "Day 05/02/2024", New(English).DefaultTitle(d))
}

func TestServerError(t *testing.T) {
	tr := New(Vietnamese)
	assert.Equal(t, "Lỗi kết nối server: boom", tr.ServerError(errors.New("boom")))
	assert.Equal(t, "Lỗi kết nối server:", tr.ServerError(nil))
}

func TestParseLocale(t *testing.T) {
	l, ok := ParseLocale(" EN ")
	assert.True(t, ok)
	assert.Equal(t, English, l)

	_, ok = ParseLocale("de")
	assert.False(t, ok)
}
