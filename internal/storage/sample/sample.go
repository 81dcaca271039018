// Package sample contains the demo roster and diary content used to seed a store.
package sample

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jon4hz/moodiary/internal/idgen"
	"github.com/jon4hz/moodiary/internal/models"
)

// Admin is the administrator created on first start of an empty local store.
var Admin = models.User{Username: "Saitama", IsAdmin: true, AvatarColor: "bg-rose-200"}

// Roster is the fixed set of sample authors.
var Roster = []models.User{
	{Username: "Mây", AvatarColor: "bg-sky-200"},
	{Username: "Gió", AvatarColor: "bg-emerald-200"},
	{Username: "Nắng", AvatarColor: "bg-amber-200"},
	{Username: "Mưa", AvatarColor: "bg-indigo-200"},
	{Username: "Cỏ_Ba_Lá", AvatarColor: "bg-lime-200"},
	{Username: "Gấu_Bông", AvatarColor: "bg-orange-200"},
	{Username: "Mèo_Mướp", AvatarColor: "bg-yellow-200"},
	{Username: "Thỏ_Trắng", AvatarColor: "bg-pink-200"},
	{Username: "Sóc_Nâu", AvatarColor: "bg-red-200"},
	{Username: "Nhím_Xù", AvatarColor: "bg-slate-200"},
	{Username: "Cáo_Nhỏ", AvatarColor: "bg-orange-300"},
}

// RosterNames returns the usernames of the roster.
func RosterNames() []string {
	names := make([]string, len(Roster))
	for i, u := range Roster {
		names[i] = u.Username
	}
	return names
}

// Moods used for generated entries.
var Moods = []models.Mood{
	models.MoodSunny,
	models.MoodCloudy,
	models.MoodRainy,
	models.MoodStormy,
	models.MoodStarry,
	models.MoodFlower,
	models.MoodLeaf,
	models.MoodRainbow,
}

// Contents are the short texts generated entries are built from.
var Contents = []string{
	"Hôm nay trời đẹp quá, mình đi dạo công viên.",
	"Mệt mỏi với công việc, chỉ muốn ngủ một giấc thật dài.",
	"Nghe được một bài hát hay, cảm thấy yêu đời hẳn.",
	"Nhớ lại chuyện cũ, lòng chợt buồn man mác.",
	"Ăn một món ngon, hạnh phúc đơn giản là đây.",
	"Gặp lại bạn cũ, nói chuyện cười đau cả bụng.",
	"Trời mưa rồi, không biết ai đó có mang dù không.",
	"Deadline dí chạy không kịp thở, cứu tôi với!",
	"Hôm nay mình đã làm được một việc tốt.",
	"Cảm thấy lạc lõng giữa phố đông người.",
	"Mong chờ chuyến đi sắp tới quá đi mất.",
	"Đôi khi chỉ cần một cái ôm là đủ.",
	"Học được một điều mới mẻ hôm nay.",
	"Tại sao mọi thứ lại khó khăn thế này?",
	"Tự thưởng cho bản thân một ly trà sữa.",
	"Thức dậy sớm đón bình minh, không khí thật trong lành.",
	"Đọc một cuốn sách hay, ngẫm ra được nhiều điều.",
	"Trồng thêm một cái cây nhỏ ngoài ban công.",
	"Nấu một bữa ăn ngon chiêu đãi cả nhà.",
	"Chỉ muốn nằm lười cả ngày không làm gì cả.",
}

// Welcome returns the hand-written entries an empty local store starts with.
func Welcome(ids idgen.Generator, now time.Time) []models.DiaryEntry {
	newID := func() string {
		id, _ := ids.NewID()
		return id
	}
	return []models.DiaryEntry{
		{
			ID:        newID(),
			Username:  Admin.Username,
			Title:     "Lời mở đầu",
			Content:   "Chào mừng đến với cuốn nhật ký chung. Hãy viết những điều trong lòng nhé. Nơi đây sẽ lưu giữ những kỷ niệm đẹp nhất của chúng ta.",
			Mood:      models.MoodRainbow,
			CreatedAt: now,
		},
		{
			ID:        newID(),
			Username:  "Mây",
			Title:     "Một chiều bình yên",
			Content:   "Hôm nay bầu trời thật xanh, những đám mây trôi lững lờ làm mình nhớ đến những ngày tháng cũ. Đôi khi, chỉ cần ngồi yên và ngắm nhìn thế giới cũng là một loại hạnh phúc.",
			Mood:      models.MoodCloudy,
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID:        newID(),
			Username:  "Gió",
			Title:     "Xong Deadline rồi!",
			Content:   "Chạy deadline muốn xỉu nhưng mà vui! Cuối cùng cũng hoàn thành xong dự án quan trọng. Tự thưởng cho bản thân một ly trà sữa full topping nha.",
			Mood:      models.MoodStarry,
			CreatedAt: now.Add(-5 * time.Hour),
		},
		{
			ID:        newID(),
			Username:  "Nắng",
			Title:     "Ngày mưa buồn",
			Content:   "Có những ngày mưa tầm tã làm lòng mình cũng ướt sũng theo. \n\n\"Em về, mưa lạnh đôi vai\nLối xưa vắng vẻ, gót hài in sâu...\"\n\nNhớ một người không nên nhớ.",
			Mood:      models.MoodRainy,
			CreatedAt: now.AddDate(0, 0, -1),
		},
		{
			ID:        newID(),
			Username:  "Mây",
			Title:     "Gửi cậu",
			Content:   "Gửi cậu, người đang đọc dòng này.\n\nHãy nhớ rằng dù hôm nay có tồi tệ đến đâu, ngày mai mặt trời vẫn sẽ mọc. Cố lên nhé!",
			Mood:      models.MoodFlower,
			CreatedAt: now.AddDate(0, 0, -1),
		},
	}
}

// Generator builds random sample entries.
type Generator struct {
	IDs        idgen.Generator
	Rand       *rand.Rand
	Now        time.Time
	MaxAgeDays int
	// Prefix is prepended to every generated content, e.g. "[Mẫu] ".
	Prefix string
}

// Entries returns n entries written by random authors.
func (g Generator) Entries(n int, authors []string) []models.DiaryEntry {
	if n <= 0 || len(authors) == 0 {
		return nil
	}
	maxAge := g.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 60
	}
	entries := make([]models.DiaryEntry, 0, n)
	for range n {
		daysAgo := g.intN(maxAge)
		id, _ := g.IDs.NewID()
		entries = append(entries, models.DiaryEntry{
			ID:        id,
			Username:  authors[g.intN(len(authors))],
			Title:     fmt.Sprintf("Chuyện ngày %d", maxAge-daysAgo),
			Content:   g.Prefix + Contents[g.intN(len(Contents))],
			Mood:      Moods[g.intN(len(Moods))],
			CreatedAt: g.Now.Add(-time.Duration(daysAgo)*24*time.Hour - time.Duration(g.intN(24*60))*time.Minute),
		})
	}
	return entries
}

func (g Generator) intN(n int) int {
	if g.Rand == nil {
		return rand.IntN(n)
	}
	return g.Rand.IntN(n)
}
