package recurring

import (
	"sort"
	"strings"
)

// TextCueBoost is added to a candidate's confidence when one of its events
// mentions a recurrence cue in its title or description.
const TextCueBoost = 0.15

// GenerateCandidates runs clustering and periodicity detection over events and
// returns one pending candidate per periodic cluster, most confident first.
// Candidate IDs are left empty for the persistence layer to assign.
func GenerateCandidates(events []Event, ownerID string, threshold float64) []Candidate {
	candidates := make([]Candidate, 0)

	for _, cluster := range Cluster(events, threshold) {
		pattern := DetectPeriodicity(cluster.Dates)
		if pattern == nil {
			continue
		}

		dates := sortedDays(cluster.Dates)
		first := cluster.Events[0]
		textCueDays := ExtractWeekdayCodes(first.Title + " " + first.Description)
		rule := BuildRule(*pattern, dates[0], dates[len(dates)-1], textCueDays)

		confidence := pattern.Confidence
		if clusterHasTextCue(cluster) {
			confidence = min(1.0, confidence+TextCueBoost)
		}

		eventIDs := make([]string, len(cluster.Events))
		for i, event := range cluster.Events {
			eventIDs[i] = event.ID
		}

		candidates = append(candidates, Candidate{
			OwnerID:         ownerID,
			ClusterKey:      ClusterKey(cluster.NormalizedTitle, cluster.StartTime, cluster.Location),
			EventIDs:        eventIDs,
			DetectedPattern: pattern.Frequency,
			ConfidenceScore: confidence,
			Title:           first.Title,
			NormalizedTitle: cluster.NormalizedTitle,
			StartTime:       cluster.StartTime,
			Location:        cluster.Location,
			OccurrenceDates: dates,
			SuggestedRRule:  rule,
			Status:          StatusPending,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ConfidenceScore > candidates[j].ConfidenceScore
	})
	return candidates
}

// ClusterKey is the stable identity of a cluster across detection runs.
// Absent parts render as "null" so keys stay compatible with stored ones.
func ClusterKey(normalizedTitle, startTime, location string) string {
	return strings.Join([]string{normalizedTitle, orDefault(startTime, "null"), orDefault(location, "null")}, "_")
}

func clusterHasTextCue(cluster EventCluster) bool {
	for _, event := range cluster.Events {
		if HasRecurringCue(event.Title) || HasRecurringCue(event.Description) {
			return true
		}
	}
	return false
}
