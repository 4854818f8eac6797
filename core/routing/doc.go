// Package routing chains great-circle legs between an origin, optional
// waypoints and a destination, and estimates arrival under traffic.
package routing
