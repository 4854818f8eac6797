package routing

import "fmt"

// Directions renders one instruction per segment followed by the arrival.
func Directions(segments []Segment) []string {
	out := make([]string, 0, len(segments)+1)
	for i, s := range segments {
		target := "destination"
		if i < len(segments)-1 {
			target = fmt.Sprintf("waypoint %d", i+1)
		}
		out = append(out, fmt.Sprintf("Head %s for %.2f km to %s", s.Direction, s.DistanceKm, target))
	}
	return append(out, "Arrive at destination")
}
