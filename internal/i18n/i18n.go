// Package i18n holds the user-visible strings of the calendar grid in the
// supported languages.
package i18n

import (
	"time"

	"golang.org/x/text/language"

	"github.com/cwarden/gridcal/internal/layout"
)

type Locale string

const (
	English Locale = "en"
	Chinese Locale = "zh"
)

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
})

// Resolve maps a BCP 47 tag such as "zh-CN" or "en_US" to a supported
// locale. Anything unrecognised is English.
func Resolve(tag string) Locale {
	t, err := language.Parse(tag)
	if err != nil {
		return English
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return English
	}
	if idx == 1 {
		return Chinese
	}
	return English
}

// Labels is the text used by the renderer.
type Labels struct {
	Weekdays [7]string
	Months   [12]string
	AllDay   string

	Continues    string
	Ends         string
	ContinuesMid string

	Edit     string
	Share    string
	Bookmark string
	Delete   string
}

var labels = map[Locale]Labels{
	English: {
		Weekdays:     [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		Months:       [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		AllDay:       "all-day",
		Continues:    " (continues...)",
		Ends:         " (...ends)",
		ContinuesMid: " (...continues...)",
		Edit:         "Edit",
		Share:        "Share",
		Bookmark:     "Bookmark",
		Delete:       "Delete",
	},
	Chinese: {
		Weekdays:     [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"},
		Months:       [12]string{"一月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "十一月", "十二月"},
		AllDay:       "全天",
		Continues:    " (继续...)",
		Ends:         " (...结束)",
		ContinuesMid: " (...继续...)",
		Edit:         "修改",
		Share:        "分享",
		Bookmark:     "书签",
		Delete:       "删除",
	},
}

// For returns the labels of l, falling back to English.
func For(l Locale) Labels {
	if lb, ok := labels[l]; ok {
		return lb
	}
	return labels[English]
}

// Weekday is the short name of d.
func (lb Labels) Weekday(d time.Weekday) string {
	return lb.Weekdays[int(d)%7]
}

// Month is the full name of m.
func (lb Labels) Month(m time.Month) string {
	return lb.Months[(int(m)+11)%12]
}

// Suffix is appended to the title of a clipped block.
func (lb Labels) Suffix(p layout.Position) string {
	switch p {
	case layout.PositionStart:
		return lb.Continues
	case layout.PositionEnd:
		return lb.Ends
	case layout.PositionMiddle:
		return lb.ContinuesMid
	default:
		return ""
	}
}
