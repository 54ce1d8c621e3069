// Package dateformat renders calendar dates and month labels for the locales
// the dashboard supports, including the Minguo, Japanese imperial era, Dangi
// and Chinese lunar calendars.
package dateformat

import (
	"fmt"
	"sort"
	"time"

	"homemoney/internal/core"
)

// Supported locale tags.
const (
	ZhCN        = "zh-CN"
	ZhSG        = "zh-SG"
	ZhHK        = "zh-HK"
	ZhTW        = "zh-TW"
	ZhClassical = "zh-Classical"
	JaJP        = "ja-JP"
	KanjiJP     = "kanji-JP"
	KoKR        = "ko-KR"
	KanjiKR     = "kanji-KR"
	EnUS        = "en-US"
	FrFR        = "fr-FR"
	EsES        = "es-ES"
	ViVN        = "vi-VN"
	MsMY        = "ms-MY"
)

// Rule formats a full date and a month label for one locale. Both receive a
// date at midnight UTC; Month always receives the first day of the month.
type Rule struct {
	Date  func(t time.Time) string
	Month func(t time.Time) string
}

var (
	englishMonths = []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	frenchMonths = []string{"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"}
	spanishMonths = []string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
	malayMonths = []string{"Januari", "Februari", "Mac", "April", "Mei", "Jun",
		"Julai", "Ogos", "September", "Oktober", "November", "Disember"}
)

var chineseRule = Rule{
	Date: func(t time.Time) string {
		return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
	},
	Month: func(t time.Time) string {
		return fmt.Sprintf("%d年%d月", t.Year(), int(t.Month()))
	},
}

var rules = map[string]Rule{
	ZhCN: chineseRule,
	ZhSG: chineseRule,
	ZhHK: chineseRule,
	ZhTW: {
		Date: func(t time.Time) string {
			return fmt.Sprintf("民國%d年%d月%d日", minguoYear(t.Year()), int(t.Month()), t.Day())
		},
		Month: func(t time.Time) string {
			return fmt.Sprintf("民國%d年%d月", minguoYear(t.Year()), int(t.Month()))
		},
	},
	ZhClassical: {Date: formatClassicalDate, Month: formatClassicalMonth},
	JaJP:        {Date: formatEraDate, Month: formatEraMonth},
	KanjiJP: {
		Date:  func(t time.Time) string { return transliterateEra(formatEraDate, t) },
		Month: func(t time.Time) string { return transliterateEra(formatEraMonth, t) },
	},
	KoKR: {
		Date: func(t time.Time) string {
			return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
		},
		Month: func(t time.Time) string {
			return fmt.Sprintf("%d년 %d월", t.Year(), int(t.Month()))
		},
	},
	KanjiKR: {
		Date: func(t time.Time) string {
			return Transliterate(fmt.Sprintf("檀紀%d年%d月%d日", dangiYear(t.Year()), int(t.Month()), t.Day()))
		},
		Month: func(t time.Time) string {
			return Transliterate(fmt.Sprintf("檀紀%d年%d月", dangiYear(t.Year()), int(t.Month())))
		},
	},
	EnUS: {
		Date: func(t time.Time) string {
			return fmt.Sprintf("%s %d, %d", englishMonths[t.Month()-1], t.Day(), t.Year())
		},
		Month: func(t time.Time) string {
			return fmt.Sprintf("%s %d", englishMonths[t.Month()-1], t.Year())
		},
	},
	FrFR: {
		Date: func(t time.Time) string {
			return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
		},
		Month: func(t time.Time) string {
			return fmt.Sprintf("%s %d", frenchMonths[t.Month()-1], t.Year())
		},
	},
	EsES: {
		Date: func(t time.Time) string {
			return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
		},
		Month: func(t time.Time) string {
			return fmt.Sprintf("%s de %d", spanishMonths[t.Month()-1], t.Year())
		},
	},
	ViVN: {
		Date: func(t time.Time) string {
			return fmt.Sprintf("%d/%02d/%d", t.Day(), int(t.Month()), t.Year())
		},
		Month: func(t time.Time) string {
			return fmt.Sprintf("%02d/%d", int(t.Month()), t.Year())
		},
	},
	MsMY: {
		Date: func(t time.Time) string {
			return fmt.Sprintf("%d %s %d", t.Day(), malayMonths[t.Month()-1], t.Year())
		},
		Month: func(t time.Time) string {
			return fmt.Sprintf("%s %d", malayMonths[t.Month()-1], t.Year())
		},
	},
}

var defaultRule = Rule{
	Date:  func(t time.Time) string { return t.Format("2006-01-02") },
	Month: func(t time.Time) string { return t.Format("2006-01") },
}

// Locales returns the supported locale tags in sorted order.
func Locales() []string {
	tags := make([]string, 0, len(rules))
	for tag := range rules {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Supported reports whether locale has its own rule.
func Supported(locale string) bool {
	_, ok := rules[locale]
	return ok
}

func ruleFor(locale string) Rule {
	if r, ok := rules[locale]; ok {
		return r
	}
	return defaultRule
}

// FormatDate renders date for locale. date may be a string in any format
// accepted by core.ParseDate or a time.Time. Unparseable input yields "".
func FormatDate(date any, locale string) string {
	t, ok := toDate(date)
	if !ok {
		return ""
	}
	return ruleFor(locale).Date(t)
}

// FormatMonthLabel renders a YYYY-MM month for locale. Unparseable input yields "".
func FormatMonthLabel(yearMonth string, locale string) string {
	key, err := core.ParseMonthKey(yearMonth)
	if err != nil {
		return ""
	}
	return FormatMonth(key, locale)
}

// FormatMonth renders a month key for locale.
func FormatMonth(key core.MonthKey, locale string) string {
	if key.IsZero() {
		return ""
	}
	return ruleFor(locale).Month(key.Start())
}

// FormatDateByLocale is an alias of FormatDate.
func FormatDateByLocale(date any, locale string) string {
	return FormatDate(date, locale)
}

// FormatMonthLabelByLocale is an alias of FormatMonthLabel.
func FormatMonthLabelByLocale(yearMonth string, locale string) string {
	return FormatMonthLabel(yearMonth, locale)
}

func toDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		y, m, day := d.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), true
	case string:
		t, err := core.ParseDate(d)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

func minguoYear(year int) int {
	return year - 1911
}

func dangiYear(year int) int {
	return year + 2333
}
