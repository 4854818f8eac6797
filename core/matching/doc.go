// Package matching scores rider/driver pairs on wait, distance and occupancy
// and selects disjoint pairs through a pluggable Matcher.
package matching
