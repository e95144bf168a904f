package recurring

import "strings"

// DefaultSimilarityThreshold is the minimum title similarity for two events
// to land in the same cluster.
const DefaultSimilarityThreshold = 0.9

// Cluster groups events greedily: each event joins the first existing cluster
// whose representative title is similar enough and whose time-of-day and
// location match exactly, otherwise it starts a new cluster. The first event of
// a cluster stays its representative. Clusters with fewer than two members are
// dropped.
func Cluster(events []Event, threshold float64) []EventCluster {
	clusters := make([]*EventCluster, 0)

	for _, event := range events {
		normalized := Normalize(event.Title)
		startTime := truncateTimeOfDay(event.StartTime)
		location := event.Location

		var found *EventCluster
		for _, cluster := range clusters {
			if cluster.StartTime != startTime || cluster.Location != location {
				continue
			}
			if Similarity(normalized, cluster.NormalizedTitle) >= threshold {
				found = cluster
				break
			}
		}

		if found == nil {
			clusters = append(clusters, &EventCluster{
				NormalizedTitle: normalized,
				StartTime:       startTime,
				Location:        location,
			})
			found = clusters[len(clusters)-1]
		}
		found.Events = append(found.Events, event)
		found.Dates = append(found.Dates, Day(event.Date))
	}

	result := make([]EventCluster, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster.Events) < 2 {
			continue
		}
		result = append(result, *cluster)
	}
	return result
}

// truncateTimeOfDay keeps the hour:minute part of a stored time string.
func truncateTimeOfDay(t string) string {
	hour, rest, ok := strings.Cut(t, ":")
	if !ok {
		return t
	}
	minute, _, _ := strings.Cut(rest, ":")
	return hour + ":" + minute
}
