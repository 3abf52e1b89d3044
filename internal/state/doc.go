// Package state persists the daily alert marker: the last calendar date an
// alert was sent. The Store interface keeps the backend injectable for
// tests; the file backend matches the classic one-file-in-a-state-dir
// deployment, the sqlite backend suits hosts that already carry a database
// file around.
package state
