package alerts

import (
	"fmt"

	"github.com/commutewatch/commutewatch/internal/route"
)

// Thresholds are the configured alert limits. Either one firing alone is
// enough: a short but proportionally large delay on a fast route and a
// long but proportionally small delay on a slow route both qualify.
type Thresholds struct {
	// DelayMin is the minimum delay in minutes that triggers an alert.
	DelayMin int
	// DelayPct is the minimum delay percentage (delay relative to the
	// traffic-free travel time) that triggers an alert.
	DelayPct float64
}

// Decision holds the derived figures and the verdict for one summary.
type Decision struct {
	TravelMin    int
	NoTrafficMin int
	DelayMin     int
	DelayPct     float64
	Alert        bool
}

// Decide converts a valid route summary into human-readable minute and
// percentage values and tests them against the thresholds. Minute values
// are ceiling-rounded; the delay percentage is 0 when the traffic-free
// time is 0.
func Decide(sum route.Summary, t Thresholds) Decision {
	d := Decision{
		TravelMin:    ceilMinutes(sum.TravelSec),
		NoTrafficMin: ceilMinutes(sum.NoTrafficSec),
	}
	if sum.DelaySec > 0 {
		d.DelayMin = ceilMinutes(sum.DelaySec)
	}
	if sum.NoTrafficSec > 0 {
		d.DelayPct = float64(sum.DelaySec) / float64(sum.NoTrafficSec) * 100
	}
	d.Alert = d.DelayMin >= t.DelayMin || d.DelayPct >= t.DelayPct
	return d
}

// Report renders the figures as the text block used for log output and
// the alert body.
func (d Decision) Report() string {
	return fmt.Sprintf(
		"ETA with traffic: %d min\n"+
			"ETA no traffic:  %d min\n"+
			"Delay:           %d min (%.0f%%)",
		d.TravelMin, d.NoTrafficMin, d.DelayMin, d.DelayPct)
}

func ceilMinutes(sec int) int {
	return (sec + 59) / 60
}
