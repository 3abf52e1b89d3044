package check

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/commutewatch/commutewatch/internal/alerts"
	"github.com/commutewatch/commutewatch/internal/notify"
	"github.com/commutewatch/commutewatch/internal/route"
)

type fakeFetcher struct {
	sum route.Summary
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context) (route.Summary, error) {
	return f.sum, f.err
}

type fakeStore struct {
	last    string
	reads   int
	marked  []string
	markErr error
}

func (s *fakeStore) LastAlertDate() (string, error) {
	s.reads++
	return s.last, nil
}

func (s *fakeStore) MarkAlerted(date string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, date)
	s.last = date
	return nil
}

type fakeNotifier struct {
	kind string
	sent []notify.Message
	err  error
}

func (n *fakeNotifier) Type() string { return n.kind }

func (n *fakeNotifier) Send(ctx context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

// delayedSummary is well over both default thresholds: 20 min delay, 100%.
var delayedSummary = route.Summary{OK: true, TravelSec: 2400, NoTrafficSec: 1200, DelaySec: 1200}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newChecker(f route.Fetcher, s *fakeStore, ns ...notify.Notifier) *Checker {
	return &Checker{
		Fetcher:    f,
		Thresholds: alerts.Thresholds{DelayMin: 15, DelayPct: 30},
		Store:      s,
		Notifiers:  ns,
		Location:   time.UTC,
		Now:        fixedClock(time.Date(2026, 8, 25, 7, 30, 0, 0, time.UTC)),
	}
}

func TestRun_SendsAndMarks(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{kind: "mailjet"}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st, n)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != Sent {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, Sent)
	}
	if len(n.sent) != 1 {
		t.Fatalf("sent messages: got %d, want 1", len(n.sent))
	}
	if n.sent[0].Subject != AlertSubject {
		t.Errorf("Subject: got %q", n.sent[0].Subject)
	}
	if !strings.Contains(n.sent[0].Body, "Commute delay exceeded threshold.") {
		t.Errorf("Body: got %q", n.sent[0].Body)
	}
	if len(st.marked) != 1 || st.marked[0] != "2026-08-25" {
		t.Errorf("marked: got %v, want [2026-08-25]", st.marked)
	}
}

func TestRun_DedupesSecondPass(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{kind: "mailjet"}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st, n)

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Outcome != AlreadyAlerted {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, AlreadyAlerted)
	}
	if len(n.sent) != 1 {
		t.Errorf("sent messages after two runs: got %d, want 1", len(n.sent))
	}
}

func TestRun_NextDayAlertsAgain(t *testing.T) {
	st := &fakeStore{last: "2026-08-24"}
	n := &fakeNotifier{kind: "mailjet"}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st, n)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != Sent {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, Sent)
	}
	if st.last != "2026-08-25" {
		t.Errorf("marker: got %q, want overwritten with 2026-08-25", st.last)
	}
}

func TestRun_NoDelaySkipsStore(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{kind: "mailjet"}
	sum := route.Summary{OK: true, TravelSec: 1260, NoTrafficSec: 1200, DelaySec: 60}
	c := newChecker(&fakeFetcher{sum: sum}, st, n)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != NoDelay {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, NoDelay)
	}
	if st.reads != 0 {
		t.Errorf("store reads: got %d, want 0 (marker only consulted on a verdict)", st.reads)
	}
	if len(n.sent) != 0 {
		t.Errorf("sent messages: got %d, want 0", len(n.sent))
	}
}

func TestRun_NotConfigured(t *testing.T) {
	st := &fakeStore{}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != NotConfigured {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, NotConfigured)
	}
	if len(st.marked) != 0 {
		t.Errorf("marked: got %v, want none without a delivery", st.marked)
	}
}

func TestRun_SendFailureLeavesMarkerUnset(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{kind: "mailjet", err: errors.New("smtp down")}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st, n)

	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("Run: expected error from failed delivery, got nil")
	}
	if len(st.marked) != 0 {
		t.Errorf("marked: got %v, want none after failed send", st.marked)
	}
}

func TestRun_SecondChannelNotTriedAfterFailure(t *testing.T) {
	st := &fakeStore{}
	n1 := &fakeNotifier{kind: "mailjet", err: errors.New("rejected")}
	n2 := &fakeNotifier{kind: "slack"}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st, n1, n2)

	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("Run: expected error, got nil")
	}
	if len(n2.sent) != 0 {
		t.Errorf("second channel sends: got %d, want 0", len(n2.sent))
	}
}

func TestRun_MultipleChannels(t *testing.T) {
	st := &fakeStore{}
	n1 := &fakeNotifier{kind: "mailjet"}
	n2 := &fakeNotifier{kind: "slack"}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st, n1, n2)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != Sent {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, Sent)
	}
	if len(n1.sent) != 1 || len(n2.sent) != 1 {
		t.Errorf("sends: got %d/%d, want 1/1", len(n1.sent), len(n2.sent))
	}
}

func TestRun_RouteUnavailable(t *testing.T) {
	st := &fakeStore{}
	f := &fakeFetcher{sum: route.Summary{Reason: "No routes returned"}}
	c := newChecker(f, st, &fakeNotifier{kind: "mailjet"})

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != RouteUnavailable {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, RouteUnavailable)
	}
	if res.Reason != "No routes returned" {
		t.Errorf("Reason: got %q", res.Reason)
	}
	if st.reads != 0 {
		t.Errorf("store reads: got %d, want 0", st.reads)
	}
}

func TestRun_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("unexpected status 503")
	c := newChecker(&fakeFetcher{err: boom}, &fakeStore{})

	if _, err := c.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run: got %v, want wrapped %v", err, boom)
	}
}

func TestRun_DateKeyUsesLocation(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{kind: "mailjet"}
	c := newChecker(&fakeFetcher{sum: delayedSummary}, st, n)
	// 23:30 UTC on the 24th is already the 25th in UTC+2.
	c.Location = time.FixedZone("UTC+2", 2*3600)
	c.Now = fixedClock(time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC))

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.marked) != 1 || st.marked[0] != "2026-08-25" {
		t.Errorf("marked: got %v, want [2026-08-25]", st.marked)
	}
}
