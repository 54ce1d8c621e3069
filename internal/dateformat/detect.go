package dateformat

import (
	"strings"

	"golang.org/x/text/language"
)

// Tags the matcher may pick; en-US first so it is the fallback.
var matchable = []string{EnUS, ZhCN, ZhSG, ZhHK, ZhTW, JaJP, KoKR, FrFR, EsES, ViVN, MsMY}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(matchable))
	for i, s := range matchable {
		tags[i] = language.MustParse(s)
	}
	return language.NewMatcher(tags)
}()

// DetectLocale maps a POSIX locale (e.g. "zh_TW.UTF-8") or BCP 47 tag to a
// supported locale. Exact matches win, including the non-standard tags;
// otherwise the closest language is chosen, defaulting to en-US.
func DetectLocale(env string) string {
	s := strings.TrimSpace(env)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" || s == "C" || s == "POSIX" {
		return EnUS
	}

	for tag := range rules {
		if strings.EqualFold(tag, s) {
			return tag
		}
	}

	tag, err := language.Parse(s)
	if err != nil {
		return EnUS
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return EnUS
	}
	return matchable[idx]
}
