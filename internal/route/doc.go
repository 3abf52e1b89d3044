// Package route queries the TomTom routing API for traffic-aware commute
// travel times and normalizes the response into a Summary the alert decider
// can consume: either numerically sane travel/delay figures or a tagged
// failure reason, never partial data.
package route
