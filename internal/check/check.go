package check

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/commutewatch/commutewatch/internal/alerts"
	"github.com/commutewatch/commutewatch/internal/notify"
	"github.com/commutewatch/commutewatch/internal/route"
	"github.com/commutewatch/commutewatch/internal/state"
)

// AlertSubject is the subject line used for every delivered alert.
const AlertSubject = "Commute Alert: Heavy delay detected"

// Outcome names what a single check pass did.
type Outcome string

const (
	// RouteUnavailable: the provider answered but the response carried
	// no usable route. Reported, not fatal.
	RouteUnavailable Outcome = "route_unavailable"

	// NoDelay: travel time is within thresholds.
	NoDelay Outcome = "no_delay"

	// AlreadyAlerted: an alert already went out today.
	AlreadyAlerted Outcome = "already_alerted"

	// NotConfigured: an alert is warranted but no notification channel
	// is set up.
	NotConfigured Outcome = "not_configured"

	// Sent: an alert was delivered and today's marker written.
	Sent Outcome = "sent"
)

// Result is the outcome of one check pass. Reason is set only for
// RouteUnavailable; Summary and Decision are zero values in that case.
type Result struct {
	Outcome  Outcome
	Reason   string
	Summary  route.Summary
	Decision alerts.Decision
}

// Checker wires one pass together. Location and Now default to the local
// timezone and wall clock when nil.
type Checker struct {
	Fetcher    route.Fetcher
	Thresholds alerts.Thresholds
	Store      state.Store
	Notifiers  []notify.Notifier
	Location   *time.Location
	Now        func() time.Time
}

// Run performs one fetch→decide→dedupe→notify pass. Transport and
// persistence failures come back as errors; everything the user resolves
// through configuration or patience comes back as a Result.
//
// The daily marker is written only after every configured channel has
// delivered, so a failed send leaves the alert eligible for the next run.
func (c *Checker) Run(ctx context.Context) (Result, error) {
	sum, err := c.Fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}
	if !sum.OK {
		return Result{Outcome: RouteUnavailable, Reason: sum.Reason}, nil
	}

	d := alerts.Decide(sum, c.Thresholds)
	if !d.Alert {
		return Result{Outcome: NoDelay, Summary: sum, Decision: d}, nil
	}

	today := state.DateKey(c.now(), c.location())
	last, err := c.Store.LastAlertDate()
	if err != nil {
		return Result{}, err
	}
	if last == today {
		return Result{Outcome: AlreadyAlerted, Summary: sum, Decision: d}, nil
	}
	if len(c.Notifiers) == 0 {
		return Result{Outcome: NotConfigured, Summary: sum, Decision: d}, nil
	}

	msg := notify.Message{
		Subject: AlertSubject,
		Body:    fmt.Sprintf("Commute delay exceeded threshold.\n\n%s\n", d.Report()),
	}
	for _, n := range c.Notifiers {
		if err := n.Send(ctx, msg); err != nil {
			return Result{}, fmt.Errorf("check: send via %s: %w", n.Type(), err)
		}
		slog.Info("alert delivered", "channel", n.Type())
	}

	if err := c.Store.MarkAlerted(today); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Sent, Summary: sum, Decision: d}, nil
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Checker) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.Local
}
