package dateformat

import "time"

// lunarInfo encodes the Chinese lunisolar calendar for 1900 through 2100.
// Bits 0-3 hold the leap month (0 for none), bits 4-15 flag months 12..1
// as 30-day months, and bit 16 flags a 30-day leap month.
var lunarInfo = [...]uint32{
	0x04bd8, 0x04ae0, 0x0a570, 0x054d5, 0x0d260, 0x0d950, 0x16554, 0x056a0, 0x09ad0, 0x055d2,
	0x04ae0, 0x0a5b6, 0x0a4d0, 0x0d250, 0x1d255, 0x0b540, 0x0d6a0, 0x0ada2, 0x095b0, 0x14977,
	0x04970, 0x0a4b0, 0x0b4b5, 0x06a50, 0x06d40, 0x1ab54, 0x02b60, 0x09570, 0x052f2, 0x04970,
	0x06566, 0x0d4a0, 0x0ea50, 0x16a95, 0x05ad0, 0x02b60, 0x186e3, 0x092e0, 0x1c8d7, 0x0c950,
	0x0d4a0, 0x1d8a6, 0x0b550, 0x056a0, 0x1a5b4, 0x025d0, 0x092d0, 0x0d2b2, 0x0a950, 0x0b557,
	0x06ca0, 0x0b550, 0x15355, 0x04da0, 0x0a5b0, 0x14573, 0x052b0, 0x0a9a8, 0x0e950, 0x06aa0,
	0x0aea6, 0x0ab50, 0x04b60, 0x0aae4, 0x0a570, 0x05260, 0x0f263, 0x0d950, 0x05b57, 0x056a0,
	0x096d0, 0x04dd5, 0x04ad0, 0x0a4d0, 0x0d4d4, 0x0d250, 0x0d558, 0x0b540, 0x0b6a0, 0x195a6,
	0x095b0, 0x049b0, 0x0a974, 0x0a4b0, 0x0b27a, 0x06a50, 0x06d40, 0x0af46, 0x0ab60, 0x09570,
	0x04af5, 0x04970, 0x064b0, 0x074a3, 0x0ea50, 0x06b58, 0x05ac0, 0x0ab60, 0x096d5, 0x092e0,
	0x0c960, 0x0d954, 0x0d4a0, 0x0da50, 0x07552, 0x056a0, 0x0abb7, 0x025d0, 0x092d0, 0x0cab5,
	0x0a950, 0x0b4a0, 0x0baa4, 0x0ad50, 0x055d9, 0x04ba0, 0x0a5b0, 0x15176, 0x052b0, 0x0a930,
	0x07954, 0x06aa0, 0x0ad50, 0x05b52, 0x04b60, 0x0a6e6, 0x0a4e0, 0x0d260, 0x0ea65, 0x0d530,
	0x05aa0, 0x076a3, 0x096d0, 0x04afb, 0x04ad0, 0x0a4d0, 0x1d0b6, 0x0d250, 0x0d520, 0x0dd45,
	0x0b5a0, 0x056d0, 0x055b2, 0x049b0, 0x0a577, 0x0a4b0, 0x0aa50, 0x1b255, 0x06d20, 0x0ada0,
	0x14b63, 0x09370, 0x049f8, 0x04970, 0x064b0, 0x168a6, 0x0ea50, 0x06b20, 0x1a6c4, 0x0aae0,
	0x0a2e0, 0x0d2e3, 0x0c960, 0x0d557, 0x0d4a0, 0x0da50, 0x05d55, 0x056a0, 0x0a6d0, 0x055d4,
	0x052d0, 0x0a9b8, 0x0a950, 0x0b4a0, 0x0b6a6, 0x0ad50, 0x055a0, 0x0aba4, 0x0a5b0, 0x052b0,
	0x0b273, 0x06930, 0x07337, 0x06aa0, 0x0ad50, 0x14b55, 0x04b60, 0x0a570, 0x054e4, 0x0d160,
	0x0e968, 0x0d520, 0x0daa0, 0x16aa6, 0x056d0, 0x04ae0, 0x0a9d4, 0x0a2d0, 0x0d150, 0x0f252,
	0x0d520,
}

const (
	lunarMinYear = 1900
	lunarMaxYear = lunarMinYear + len(lunarInfo) - 1
)

// Lunar new year of 1900.
var lunarEpoch = time.Date(1900, time.January, 31, 0, 0, 0, 0, time.UTC)

var (
	heavenlyStems   = []string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
	earthlyBranches = []string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}

	// Indexed by the Gregorian month of the input, not the lunar month.
	classicalMonths = []string{"正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月", "腊月"}

	lunarDayTens  = []string{"初", "十", "廿", "三"}
	lunarDayUnits = []string{"一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}
)

// LunarDate is a date in the Chinese lunisolar calendar.
type LunarDate struct {
	Year  int
	Month int
	Day   int
	Leap  bool
}

func leapMonth(year int) int {
	return int(lunarInfo[year-lunarMinYear] & 0xf)
}

func leapMonthDays(year int) int {
	if leapMonth(year) == 0 {
		return 0
	}
	if lunarInfo[year-lunarMinYear]&0x10000 != 0 {
		return 30
	}
	return 29
}

func lunarMonthDays(year, month int) int {
	if lunarInfo[year-lunarMinYear]&(0x10000>>uint(month)) != 0 {
		return 30
	}
	return 29
}

func lunarYearDays(year int) int {
	days := 348
	for bit := uint32(0x8000); bit > 0x8; bit >>= 1 {
		if lunarInfo[year-lunarMinYear]&bit != 0 {
			days++
		}
	}
	return days + leapMonthDays(year)
}

// ToLunar converts a Gregorian calendar date. ok is false outside the
// supported table range.
func ToLunar(t time.Time) (LunarDate, bool) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if day.Before(lunarEpoch) {
		return LunarDate{}, false
	}
	offset := int(day.Sub(lunarEpoch).Hours() / 24)

	year := lunarMinYear
	for ; year <= lunarMaxYear; year++ {
		days := lunarYearDays(year)
		if offset < days {
			break
		}
		offset -= days
	}
	if year > lunarMaxYear {
		return LunarDate{}, false
	}

	leap := leapMonth(year)
	month := 1
	isLeap := false
	for ; month <= 12; month++ {
		days := lunarMonthDays(year, month)
		if offset < days {
			break
		}
		offset -= days
		if month == leap {
			if offset < leapMonthDays(year) {
				isLeap = true
				break
			}
			offset -= leapMonthDays(year)
		}
	}

	return LunarDate{Year: year, Month: month, Day: offset + 1, Leap: isLeap}, true
}

// SexagenaryYear returns the stem-branch name of a lunar year, e.g. 甲辰.
func SexagenaryYear(year int) string {
	n := year - 4
	return heavenlyStems[mod(n, 10)] + earthlyBranches[mod(n, 12)]
}

// LunarDayName renders a lunar day number as 初一 .. 三十.
func LunarDayName(day int) string {
	switch {
	case day < 1 || day > 30:
		return ""
	case day == 10:
		return "初十"
	case day == 20:
		return "二十"
	case day == 30:
		return "三十"
	}
	return lunarDayTens[day/10] + lunarDayUnits[day%10-1]
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}

func formatClassicalDate(t time.Time) string {
	ld, ok := ToLunar(t)
	if !ok {
		return ""
	}
	return SexagenaryYear(ld.Year) + "年" + classicalMonths[t.Month()-1] + LunarDayName(ld.Day)
}

func formatClassicalMonth(t time.Time) string {
	ld, ok := ToLunar(t)
	if !ok {
		return ""
	}
	return SexagenaryYear(ld.Year) + "年" + classicalMonths[t.Month()-1]
}
