package dateformat

import (
	"fmt"
	"time"
)

type era struct {
	name  string
	start time.Time
}

// Newest first.
var japaneseEras = []era{
	{name: "令和", start: time.Date(2019, time.May, 1, 0, 0, 0, 0, time.UTC)},
	{name: "平成", start: time.Date(1989, time.January, 8, 0, 0, 0, 0, time.UTC)},
	{name: "昭和", start: time.Date(1926, time.December, 25, 0, 0, 0, 0, time.UTC)},
	{name: "大正", start: time.Date(1912, time.July, 30, 0, 0, 0, 0, time.UTC)},
	{name: "明治", start: time.Date(1868, time.January, 25, 0, 0, 0, 0, time.UTC)},
}

// JapaneseEra returns the era containing t and the year within it. ok is
// false for dates before the first known era.
func JapaneseEra(t time.Time) (name string, year int, ok bool) {
	for _, e := range japaneseEras {
		if !t.Before(e.start) {
			return e.name, t.Year() - e.start.Year() + 1, true
		}
	}
	return "", 0, false
}

func formatEraDate(t time.Time) string {
	name, year, ok := JapaneseEra(t)
	if !ok {
		return defaultRule.Date(t)
	}
	return fmt.Sprintf("%s%d年%d月%d日", name, year, int(t.Month()), t.Day())
}

func formatEraMonth(t time.Time) string {
	name, year, ok := JapaneseEra(t)
	if !ok {
		return defaultRule.Month(t)
	}
	return fmt.Sprintf("%s%d年%d月", name, year, int(t.Month()))
}

// transliterateEra renders with format and converts digits, except for the
// default fallback which keeps Arabic digits.
func transliterateEra(format func(time.Time) string, t time.Time) string {
	if _, _, ok := JapaneseEra(t); !ok {
		return format(t)
	}
	return Transliterate(format(t))
}
