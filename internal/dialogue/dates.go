package dialogue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	commonerrors "tourchat/internal/common/errors"
)

// DateRange is a resolved travel window. Confirmed marks ranges the user
// stated explicitly, as opposed to a canonical sub-range derived from a
// month or holiday phrase.
type DateRange struct {
	From      time.Time
	To        time.Time
	Confirmed bool

	// ExplicitPair is set when the user stated both ends ("05.06-12.06").
	// Only then is the night count derivable from the range.
	ExplicitPair bool
}

// Nights returns the stay length implied by the range.
func (r DateRange) Nights() int {
	return int(r.To.Sub(r.From).Hours() / 24)
}

var monthNames = map[string]time.Month{
	"январь": time.January, "января": time.January, "январе": time.January,
	"февраль": time.February, "февраля": time.February, "феврале": time.February,
	"март": time.March, "марта": time.March, "марте": time.March,
	"апрель": time.April, "апреля": time.April, "апреле": time.April,
	"май": time.May, "мая": time.May, "мае": time.May,
	"июнь": time.June, "июня": time.June, "июне": time.June,
	"июль": time.July, "июля": time.July, "июле": time.July,
	"август": time.August, "августа": time.August, "августе": time.August,
	"сентябрь": time.September, "сентября": time.September, "сентябре": time.September,
	"октябрь": time.October, "октября": time.October, "октябре": time.October,
	"ноябрь": time.November, "ноября": time.November, "ноябре": time.November,
	"декабрь": time.December, "декабря": time.December, "декабре": time.December,
}

var (
	dateRangePattern  = regexp.MustCompile(`(\d{1,2})[.](\d{1,2})(?:[.](\d{2,4}))?\s*[-–—]\s*(\d{1,2})[.](\d{1,2})(?:[.](\d{2,4}))?`)
	singleDatePattern = regexp.MustCompile(`(\d{1,2})[.](\d{1,2})(?:[.](\d{2,4}))?`)
	inDaysPattern     = regexp.MustCompile(`через\s+(\d+)\s+(?:день|дня|дней)`)
)

// ParseDateText resolves a date phrase deterministically against the
// conversation's reference date. Supported forms: explicit "DD.MM" or
// "DD.MM-DD.MM" pairs, month names, fixed holiday phrases, and relative
// "через N дней". A date beyond the sellable horizon is rejected with an
// INVALID_DATE error, never silently clamped.
func ParseDateText(text string, ref time.Time, horizonDays int) (*DateRange, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	ref = truncateDay(ref)

	// Holiday phrases map to fixed canonical windows.
	if strings.Contains(normalized, "майские") {
		r := holidayRange(ref, time.April, 28, time.May, 10)
		return checkHorizon(r, ref, horizonDays)
	}
	if strings.Contains(normalized, "новый год") || strings.Contains(normalized, "новогодние") {
		r := holidayRange(ref, time.December, 28, time.January, 8)
		return checkHorizon(r, ref, horizonDays)
	}

	if m := inDaysPattern.FindStringSubmatch(normalized); m != nil {
		n, _ := strconv.Atoi(m[1])
		from := ref.AddDate(0, 0, n)
		r := &DateRange{From: from, To: from.AddDate(0, 0, 7), Confirmed: false}
		return checkHorizon(r, ref, horizonDays)
	}

	if m := dateRangePattern.FindStringSubmatch(normalized); m != nil {
		from, err := resolveDate(m[1], m[2], m[3], ref)
		if err != nil {
			return nil, err
		}
		to, err := resolveDate(m[4], m[5], m[6], ref)
		if err != nil {
			return nil, err
		}
		// A range like 28.12-05.01 wraps the year boundary
		if to.Before(from) {
			to = to.AddDate(1, 0, 0)
		}
		r := &DateRange{From: from, To: to, Confirmed: true, ExplicitPair: true}
		return checkHorizon(r, ref, horizonDays)
	}

	if m := singleDatePattern.FindStringSubmatch(normalized); m != nil {
		from, err := resolveDate(m[1], m[2], m[3], ref)
		if err != nil {
			return nil, err
		}
		r := &DateRange{From: from, To: from.AddDate(0, 0, 7), Confirmed: true}
		return checkHorizon(r, ref, horizonDays)
	}

	for name, month := range monthNames {
		if containsWord(normalized, name) {
			r := monthRange(month, ref)
			return checkHorizon(r, ref, horizonDays)
		}
	}

	return nil, commonerrors.NewInvalidDateError(fmt.Sprintf("unrecognized date phrase: %s", text))
}

// resolveDate builds a concrete date from day/month/optional-year strings.
// A missing year picks the nearest future occurrence.
func resolveDate(dayStr, monthStr, yearStr string, ref time.Time) (time.Time, error) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, commonerrors.NewInvalidDateError(
			fmt.Sprintf("impossible date: %s.%s", dayStr, monthStr))
	}

	year := ref.Year()
	if yearStr != "" {
		y, _ := strconv.Atoi(yearStr)
		if y < 100 {
			y += 2000
		}
		year = y
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location())
	if yearStr == "" && date.Before(ref) {
		date = date.AddDate(1, 0, 0)
	}
	return date, nil
}

// monthRange maps a bare month to its nearest future full-month window.
func monthRange(month time.Month, ref time.Time) *DateRange {
	year := ref.Year()
	start := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
	if start.Before(ref) && month != ref.Month() {
		start = start.AddDate(1, 0, 0)
	}
	if month == ref.Month() {
		start = ref
	}
	end := time.Date(start.Year(), month, 1, 0, 0, 0, 0, ref.Location()).AddDate(0, 1, 0)
	return &DateRange{From: start, To: end, Confirmed: false}
}

func holidayRange(ref time.Time, fromMonth time.Month, fromDay int, toMonth time.Month, toDay int) *DateRange {
	year := ref.Year()
	from := time.Date(year, fromMonth, fromDay, 0, 0, 0, 0, ref.Location())
	if from.Before(ref) {
		from = from.AddDate(1, 0, 0)
	}
	to := time.Date(from.Year(), toMonth, toDay, 0, 0, 0, 0, ref.Location())
	if to.Before(from) {
		to = to.AddDate(1, 0, 0)
	}
	return &DateRange{From: from, To: to, Confirmed: false}
}

func checkHorizon(r *DateRange, ref time.Time, horizonDays int) (*DateRange, error) {
	if horizonDays <= 0 {
		horizonDays = 365
	}
	limit := ref.AddDate(0, 0, horizonDays)
	if r.From.After(limit) {
		return nil, commonerrors.NewInvalidDateError(
			fmt.Sprintf("date %s is beyond the booking horizon", r.From.Format("02.01.2006")))
	}
	if r.From.Before(ref) {
		return nil, commonerrors.NewInvalidDateError(
			fmt.Sprintf("date %s is in the past", r.From.Format("02.01.2006")))
	}
	return r, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func containsWord(text, word string) bool {
	idx := strings.Index(text, word)
	if idx < 0 {
		return false
	}
	// Cheap word-boundary check for Cyrillic text
	if idx > 0 {
		prev, _ := lastRune(text[:idx])
		if isLetter(prev) {
			return false
		}
	}
	rest := text[idx+len(word):]
	if rest != "" {
		next := firstRune(rest)
		if isLetter(next) {
			return false
		}
	}
	return true
}

func lastRune(s string) (rune, int) {
	var r rune
	var size int
	for i, c := range s {
		r = c
		size = i
	}
	return r, size
}

func firstRune(s string) rune {
	for _, c := range s {
		return c
	}
	return 0
}

func isLetter(r rune) bool {
	return (r >= 'а' && r <= 'я') || (r >= 'А' && r <= 'Я') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == 'ё' || r == 'Ё'
}
