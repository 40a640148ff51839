// Package remind decides which tasks have just come due and sends desktop
// notifications for them.
package remind

import (
	"errors"
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"careconnect/internal/tasks"
)

const DefaultGrace = time.Hour

type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier sends native notifications through beeep.
type DesktopNotifier struct{}

func (n DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Scanner remembers which tasks it has already reported. It is not safe
// for concurrent use; the dashboard calls it from its update loop.
type Scanner struct {
	Grace    time.Duration
	notified map[int64]bool
}

func NewScanner(grace time.Duration) *Scanner {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Scanner{Grace: grace, notified: map[int64]bool{}}
}

// Due returns pending tasks whose due instant is at or before now and no
// more than Grace ago. Tasks older than Grace are marked seen without being
// returned so a late start does not replay a backlog.
func (s *Scanner) Due(now time.Time, ts []tasks.Task) []tasks.Task {
	var out []tasks.Task
	for _, t := range ts {
		if t.Done() || s.notified[t.ID] {
			continue
		}
		if t.Due.After(now) {
			continue
		}
		s.notified[t.ID] = true
		if now.Sub(t.Due) > s.Grace {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Ledger persists which tasks have had their reminder handled, so separate
// runs (a cron job, the dashboard) report each task once between them.
type Ledger interface {
	Reminded() (map[int64]bool, error)
	MarkReminded(id int64, at time.Time) error
}

// Check is Due backed by l. Tasks l already knows about are skipped, and
// every task Due marks seen is written back, including overdue ones that
// were skipped silently.
func (s *Scanner) Check(l Ledger, now time.Time, ts []tasks.Task) ([]tasks.Task, error) {
	seen, err := l.Reminded()
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	for id := range seen {
		s.notified[id] = true
	}

	fresh := make([]int64, 0, len(ts))
	for _, t := range ts {
		if !s.notified[t.ID] {
			fresh = append(fresh, t.ID)
		}
	}
	due := s.Due(now, ts)

	var errs []error
	for _, id := range fresh {
		if !s.notified[id] {
			continue
		}
		if err := l.MarkReminded(id, now); err != nil {
			errs = append(errs, err)
		}
	}
	return due, errors.Join(errs...)
}

// Forget lets a reopened or rescheduled task be reported again.
func (s *Scanner) Forget(id int64) {
	delete(s.notified, id)
}

func Message(t tasks.Task, ref time.Time) string {
	return t.Title + " (due " + tasks.FormatDueDate(t.Due, ref) + ")"
}

// Send notifies about each task. A failed delivery does not stop the rest.
func Send(n Notifier, title string, due []tasks.Task, ref time.Time) error {
	var errs []error
	for _, t := range due {
		if err := n.Notify(title, Message(t, ref)); err != nil {
			errs = append(errs, fmt.Errorf("notify task %d: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}
