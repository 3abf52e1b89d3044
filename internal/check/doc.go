// Package check runs one commute check pass: fetch the route, decide
// whether the delay warrants an alert, dedupe against the daily marker and
// deliver notifications. Every collaborator is injected so the pass is
// testable without network or disk.
package check
