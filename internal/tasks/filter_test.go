package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(ts []Task) []int64 {
	out := make([]int64, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func sampleTasks() []Task {
	return []Task{
		{ID: 4, Title: "Call Dr. Patel", Description: "Ask about dosage", Due: at(2026, time.February, 26, 14, 0), Status: StatusPending},
		{ID: 1, Title: "Take medication", Due: at(2026, time.February, 26, 9, 0), Status: StatusPending},
		{ID: 3, Title: "Refill prescription", Description: "Pharmacy on Main St", Due: at(2026, time.February, 28, 10, 0), Status: StatusCompleted},
		{ID: 2, Title: "Physical therapy", Due: at(2026, time.February, 27, 11, 0), Status: StatusPending},
		{ID: 5, Title: "Water plants", Due: at(2026, time.February, 26, 9, 0), Status: StatusCompleted},
	}
}

func TestParseFilterMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FilterMode
		wantErr bool
	}{
		{"all", FilterAll, false},
		{"  Today ", FilterToday, false},
		{"SEARCH", FilterSearch, false},
		{"", FilterAll, false},
		{"overdue", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilterMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilterMode_ErrorQuotesInput(t *testing.T) {
	_, err := ParseFilterMode(" Weekly ")
	assert.ErrorContains(t, err, `" Weekly "`)
}

func TestFilterMode_Next(t *testing.T) {
	assert.Equal(t, FilterToday, FilterAll.Next())
	assert.Equal(t, FilterSearch, FilterToday.Next())
	assert.Equal(t, FilterAll, FilterSearch.Next())
	assert.Equal(t, FilterAll, FilterMode("bogus").Next())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestSortByDue(t *testing.T) {
	in := sampleTasks()
	before := ids(in)

	got := SortByDue(in)

	// 1 and 5 share a due instant; input order (1 before 5) is kept.
	assert.Equal(t, []int64{1, 5, 4, 2, 3}, ids(got))
	assert.Equal(t, before, ids(in), "input must not be reordered")
}

func TestSortByDue_Idempotent(t *testing.T) {
	once := SortByDue(sampleTasks())
	twice := SortByDue(once)
	assert.Equal(t, ids(once), ids(twice))
}

func TestSortByDue_Empty(t *testing.T) {
	assert.Empty(t, SortByDue(nil))
}

func TestSortAndSplit(t *testing.T) {
	in := []Task{
		{ID: 3, Due: at(2026, time.February, 28, 9, 0), Status: StatusCompleted},
		{ID: 1, Due: at(2026, time.February, 26, 9, 0), Status: StatusPending},
		{ID: 2, Due: at(2026, time.February, 27, 9, 0), Status: StatusPending},
	}

	sorted := SortByDue(in)
	assert.Equal(t, []int64{1, 2, 3}, ids(sorted))

	pending, completed := SplitByStatus(sorted)
	assert.Equal(t, []int64{1, 2}, ids(pending))
	assert.Equal(t, []int64{3}, ids(completed))
}

func TestSplitByStatus_Complete(t *testing.T) {
	in := sampleTasks()
	pending, completed := SplitByStatus(in)

	require.Len(t, in, len(pending)+len(completed))

	seen := map[int64]int{}
	for _, task := range pending {
		assert.Equal(t, StatusPending, task.Status)
		seen[task.ID]++
	}
	for _, task := range completed {
		assert.Equal(t, StatusCompleted, task.Status)
		seen[task.ID]++
	}
	for _, task := range in {
		assert.Equal(t, 1, seen[task.ID], "task %d", task.ID)
	}

	assert.Equal(t, []int64{4, 1, 2}, ids(pending))
	assert.Equal(t, []int64{3, 5}, ids(completed))
}

func TestFilter_All(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)
	pending, completed := SplitByStatus(sampleTasks())

	for _, q := range []string{"", "medication", "zzz"} {
		p, c := Filter(pending, completed, FilterAll, q, ref)
		assert.Equal(t, pending, p)
		assert.Equal(t, completed, c)
	}
}

func TestFilter_Today(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)
	pending, completed := SplitByStatus(sampleTasks())

	p, c := Filter(pending, completed, FilterToday, "ignored", ref)

	assert.Equal(t, []int64{4, 1}, ids(p))
	assert.Empty(t, c)
	assert.NotNil(t, c)
	for _, task := range p {
		assert.True(t, IsDueToday(task.Due, ref))
	}
}

func TestFilter_TodaySingleTask(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)
	med := Task{ID: 1, Title: "Take medication", Due: at(2026, time.February, 26, 9, 0), Status: StatusPending}

	p, c := Filter([]Task{med}, []Task{}, FilterToday, "", ref)

	assert.Equal(t, []Task{med}, p)
	assert.Empty(t, c)
}

func TestFilter_Search(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)
	pending, completed := SplitByStatus(sampleTasks())

	tests := []struct {
		name          string
		query         string
		wantPending   []int64
		wantCompleted []int64
	}{
		{"title match in completed", "prescription", []int64{}, []int64{3}},
		{"case insensitive", "MEDICATION", []int64{1}, []int64{}},
		{"description match", "dosage", []int64{4}, []int64{}},
		{"description in completed", "main st", []int64{}, []int64{3}},
		{"surrounding whitespace is part of the query", "  therapy  ", []int64{}, []int64{}},
		{"trailing space past end of title", "prescription ", []int64{}, []int64{}},
		{"inner space", "physical th", []int64{2}, []int64{}},
		{"no match", "groceries", []int64{}, []int64{}},
		{"blank query acts as all", "   ", []int64{4, 1, 2}, []int64{3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, c := Filter(pending, completed, FilterSearch, tt.query, ref)
			assert.Equal(t, tt.wantPending, ids(p))
			assert.Equal(t, tt.wantCompleted, ids(c))
		})
	}
}

func TestFilter_SearchRefillPrescription(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)
	pending := []Task{{ID: 1, Title: "Take medication", Due: at(2026, time.February, 26, 9, 0)}}
	refill := Task{ID: 2, Title: "Refill prescription", Status: StatusCompleted}

	p, c := Filter(pending, []Task{refill}, FilterSearch, "prescription", ref)

	assert.Empty(t, p)
	assert.Equal(t, []Task{refill}, c)
}

func TestFilter_UnknownModePassesThrough(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)
	pending, completed := SplitByStatus(sampleTasks())

	p, c := Filter(pending, completed, FilterMode("weekly"), "x", ref)
	assert.Equal(t, pending, p)
	assert.Equal(t, completed, c)
}

func TestFilter_DoesNotMutateInputs(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)
	pending, completed := SplitByStatus(sampleTasks())
	p0, c0 := ids(pending), ids(completed)

	Filter(pending, completed, FilterToday, "", ref)
	Filter(pending, completed, FilterSearch, "a", ref)

	assert.Equal(t, p0, ids(pending))
	assert.Equal(t, c0, ids(completed))
}

func TestDerive(t *testing.T) {
	ref := at(2026, time.February, 26, 8, 0)

	v := Derive(sampleTasks(), FilterAll, "", ref)
	assert.Equal(t, []int64{1, 4, 2}, ids(v.Pending))
	assert.Equal(t, []int64{5, 3}, ids(v.Completed))
	assert.Equal(t, 5, v.Len())

	first, ok := v.At(0)
	require.True(t, ok)
	assert.Equal(t, int64(1), first.ID)

	last, ok := v.At(4)
	require.True(t, ok)
	assert.Equal(t, int64(3), last.ID)

	_, ok = v.At(5)
	assert.False(t, ok)
	_, ok = v.At(-1)
	assert.False(t, ok)

	today := Derive(sampleTasks(), FilterToday, "", ref)
	assert.Equal(t, []int64{1, 4}, ids(today.Pending))
	assert.Empty(t, today.Completed)
}
