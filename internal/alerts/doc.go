// Package alerts decides whether a commute delay warrants an alert.
// Decide is a pure function over a route summary and the configured
// thresholds; it produces the minute/percentage figures, the report text
// and the verdict, and nothing else.
package alerts
