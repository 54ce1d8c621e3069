package dateformat

import "strings"

var kanjiDigits = [10]rune{'〇', '一', '二', '三', '四', '五', '六', '七', '八', '九'}

// Transliterate replaces each ASCII digit with its kanji numeral. There is
// no place value: "20" becomes "二〇".
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(kanjiDigits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
