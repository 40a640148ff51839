package tasks

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type FilterMode string

const (
	FilterAll    FilterMode = "all"
	FilterToday  FilterMode = "today"
	FilterSearch FilterMode = "search"
)

var filterCycle = []FilterMode{FilterAll, FilterToday, FilterSearch}

// ParseFilterMode accepts any casing; an empty string means FilterAll.
func ParseFilterMode(s string) (FilterMode, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return FilterAll, nil
	}
	for _, m := range filterCycle {
		if string(m) == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown filter mode %q", s)
}

// Next returns the mode after m in the all → today → search cycle.
func (m FilterMode) Next() FilterMode {
	i := slices.Index(filterCycle, m)
	return filterCycle[(i+1)%len(filterCycle)]
}

// SortByDue returns a copy of ts ordered by due instant, earliest first.
// Tasks due at the same instant keep their input order.
func SortByDue(ts []Task) []Task {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, func(a, b Task) int {
		return a.Due.Compare(b.Due)
	})
	return out
}

func SplitByStatus(ts []Task) (pending, completed []Task) {
	pending = make([]Task, 0, len(ts))
	completed = make([]Task, 0)
	for _, t := range ts {
		if t.Done() {
			completed = append(completed, t)
			continue
		}
		pending = append(pending, t)
	}
	return pending, completed
}

// Filter narrows the pending and completed lists according to mode.
//
// FilterToday keeps pending tasks due on ref's calendar day and drops every
// completed task. FilterSearch keeps tasks whose title or description
// contains query, ignoring case. The query is matched as typed, spaces
// included; a whitespace-only query behaves like FilterAll.
// Any other mode returns both inputs unchanged.
func Filter(pending, completed []Task, mode FilterMode, query string, ref time.Time) ([]Task, []Task) {
	switch mode {
	case FilterToday:
		today := make([]Task, 0, len(pending))
		for _, t := range pending {
			if IsDueToday(t.Due, ref) {
				today = append(today, t)
			}
		}
		return today, []Task{}
	case FilterSearch:
		if strings.TrimSpace(query) == "" {
			return pending, completed
		}
		q := strings.ToLower(query)
		return matching(pending, q), matching(completed, q)
	default:
		return pending, completed
	}
}

func matching(ts []Task, q string) []Task {
	out := make([]Task, 0, len(ts))
	for _, t := range ts {
		if Matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether the lower-cased title or description of t
// contains q. q must already be lower-cased.
func Matches(t Task, q string) bool {
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

type View struct {
	Pending   []Task
	Completed []Task
}

func (v View) Len() int {
	return len(v.Pending) + len(v.Completed)
}

// At indexes the pending list followed by the completed list, the order in
// which the dashboard renders them.
func (v View) At(i int) (Task, bool) {
	if i < 0 || i >= v.Len() {
		return Task{}, false
	}
	if i < len(v.Pending) {
		return v.Pending[i], true
	}
	return v.Completed[i-len(v.Pending)], true
}

// Derive runs the render pipeline: sort, split by status, then filter.
func Derive(ts []Task, mode FilterMode, query string, ref time.Time) View {
	pending, completed := SplitByStatus(SortByDue(ts))
	pending, completed = Filter(pending, completed, mode, query, ref)
	return View{Pending: pending, Completed: completed}
}
