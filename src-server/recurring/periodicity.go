package recurring

import (
	"math"
	"sort"
	"time"
)

// MinConsistency is the lowest gap consistency still worth suggesting.
const MinConsistency = 0.7

// weekday codes indexed by time.Weekday
var weekdayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// DetectPeriodicity classifies a date series by its mean inter-occurrence gap.
// It returns nil when there are fewer than two dates, when the gaps are too
// irregular, or when the mean gap fits no known frequency.
func DetectPeriodicity(dates []time.Time) *PeriodicityPattern {
	if len(dates) < 2 {
		return nil
	}

	sorted := sortedDays(dates)
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, float64(daysBetween(sorted[i-1], sorted[i])))
	}

	mean := 0.0
	for _, gap := range gaps {
		mean += gap
	}
	mean /= float64(len(gaps))
	if mean <= 0 {
		return nil
	}

	variance := 0.0
	for _, gap := range gaps {
		variance += (gap - mean) * (gap - mean)
	}
	variance /= float64(len(gaps))

	consistency := math.Max(0, 1-math.Sqrt(variance)/mean)
	if consistency < MinConsistency {
		return nil
	}

	switch {
	case math.Abs(mean-7) < 2:
		return &PeriodicityPattern{Frequency: FreqWeekly, Interval: 1, ByDay: dominantWeekdays(sorted), Confidence: consistency}
	case math.Abs(mean-14) < 2:
		return &PeriodicityPattern{Frequency: FreqBiweekly, Interval: 2, ByDay: dominantWeekdays(sorted), Confidence: consistency}
	case math.Abs(mean-1) < 0.5:
		return &PeriodicityPattern{Frequency: FreqDaily, Interval: 1, Confidence: consistency}
	case mean >= 28 && mean <= 31:
		return &PeriodicityPattern{Frequency: FreqMonthly, Interval: 1, Confidence: consistency}
	}
	return nil
}

// dominantWeekdays lists, Sunday first, every weekday seen at least twice.
func dominantWeekdays(dates []time.Time) []string {
	var counts [7]int
	for _, date := range dates {
		counts[date.Weekday()]++
	}
	var days []string
	for dow, count := range counts {
		if count >= 2 {
			days = append(days, weekdayCodes[dow])
		}
	}
	return days
}

func sortedDays(dates []time.Time) []time.Time {
	sorted := make([]time.Time, len(dates))
	for i, date := range dates {
		sorted[i] = Day(date)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return sorted
}
