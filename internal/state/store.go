package state

import "time"

// Store persists the last calendar date an alert was sent.
type Store interface {
	// LastAlertDate returns the stored date key (YYYY-MM-DD), or the
	// empty string when no alert has ever been recorded.
	LastAlertDate() (string, error)

	// MarkAlerted records date as the last alert date, replacing any
	// previous value.
	MarkAlerted(date string) error
}

// DateKey formats t in loc as the YYYY-MM-DD key used for daily dedupe.
// Pinning the location makes the behavior across timezone and DST
// boundaries explicit instead of depending on wherever the process runs.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
