package recurring

import "strings"

var recurringTextCues = [...]string{
	"every", "weekly", "biweekly", "daily", "monthly",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"mon", "tue", "wed", "thu", "fri", "sat", "sun",
	"office hours", "office hour", "lecture", "lab", "seminar", "discussion",
	"until", "through", "recurring", "repeating", "regular",
}

// full names first so the output order follows the week as spelled out
var weekdayNames = [...]struct {
	name string
	code string
}{
	{"monday", "MO"}, {"tuesday", "TU"}, {"wednesday", "WE"}, {"thursday", "TH"},
	{"friday", "FR"}, {"saturday", "SA"}, {"sunday", "SU"},
	{"mon", "MO"}, {"tue", "TU"}, {"wed", "WE"}, {"thu", "TH"},
	{"fri", "FR"}, {"sat", "SA"}, {"sun", "SU"},
}

// HasRecurringCue reports whether text mentions any word that hints at a
// repeating activity.
func HasRecurringCue(text string) bool {
	lower := strings.ToLower(text)
	for _, cue := range recurringTextCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// ExtractWeekdayCodes returns the distinct two-letter weekday codes whose
// names or abbreviations appear in text.
func ExtractWeekdayCodes(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	codes := make([]string, 0)
	for _, day := range weekdayNames {
		if !strings.Contains(lower, day.name) {
			continue
		}
		if _, ok := seen[day.code]; ok {
			continue
		}
		seen[day.code] = struct{}{}
		codes = append(codes, day.code)
	}
	return codes
}
