package task_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/taskdesk/internal/collection"
	"github.com/rpggio/taskdesk/internal/domain/record"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/stretchr/testify/require"
)

func dozenTasks() []task.Task {
	start := time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC)
	var out []task.Task
	// Listed newest-first, as the API returns them.
	for n := 12; n >= 1; n-- {
		due := start.AddDate(0, 0, n)
		tk := task.Task{
			ID:         fmt.Sprintf("task-%02d", n),
			Title:      fmt.Sprintf("Sprint item %d", n),
			Status:     task.StatusPending,
			Priority:   task.PriorityMedium,
			DueDate:    &due,
			Project:    record.Ref{ID: "p1", Name: "Launch"},
			AssignedTo: record.RefTo("u1"),
		}
		switch n {
		case 2:
			tk.Title = "Deploy API"
		case 5:
			tk.Description = "deploy the worker fleet"
		case 10:
			tk.Title = "Smoke test after DEPLOY"
		}
		out = append(out, tk)
	}
	return out
}

func rowIDs(rows []task.Task) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestSchema_IsValid(t *testing.T) {
	require.NoError(t, task.Schema(0).Validate())
}

func TestSchema_ThirdPageHoldsLatestDue(t *testing.T) {
	schema := task.Schema(5)
	q := schema.DefaultQuery()
	require.Equal(t, "dueDate", q.SortField)
	require.Equal(t, collection.Asc, q.SortOrder)
	q.Page = 3

	d := collection.Derive(dozenTasks(), schema, q)
	require.Equal(t, 3, d.TotalPages)
	require.Equal(t, []string{"task-11", "task-12"}, rowIDs(d.Rows))
}

func TestSchema_SearchResetsToFirstPage(t *testing.T) {
	src := dozenTasks()
	schema := task.Schema(5)
	v, err := collection.NewView[task.Task, task.Payload](schema, staticSource(src))
	require.NoError(t, err)
	require.NoError(t, v.Load(t.Context()))

	_, err = v.SetQuery(collection.QueryPatch{Page: ptr(3)})
	require.NoError(t, err)
	q, err := v.SetQuery(collection.QueryPatch{Search: ptr("deploy")})
	require.NoError(t, err)
	require.Equal(t, 1, q.Page)

	snap := v.Snapshot()
	require.Equal(t, 3, snap.Derived.FilteredCount)
	require.Equal(t, []string{"task-02", "task-05", "task-10"}, rowIDs(snap.Derived.Rows))
}

func TestSchema_StatusSortsAlphabetically(t *testing.T) {
	tasks := []task.Task{
		{ID: "p", Status: task.StatusPending},
		{ID: "x", Status: task.StatusCancelled},
		{ID: "i", Status: task.StatusInProgress},
		{ID: "c", Status: task.StatusCompleted},
	}
	schema := task.Schema(5)
	q := schema.DefaultQuery()
	q.SortField = "status"

	require.Equal(t, []string{"x", "c", "i", "p"}, rowIDs(collection.Derive(tasks, schema, q).Rows))

	q.SortField = "priority"
	q.SortOrder = collection.Desc
	tasks = []task.Task{
		{ID: "h", Priority: task.PriorityHigh},
		{ID: "l", Priority: task.PriorityLow},
		{ID: "m", Priority: task.PriorityMedium},
	}
	require.Equal(t, []string{"m", "l", "h"}, rowIDs(collection.Derive(tasks, schema, q).Rows))
}

func TestSchema_FiltersByProjectRef(t *testing.T) {
	tasks := dozenTasks()
	tasks[0].Project = record.RefTo("p2")
	schema := task.Schema(5)
	q := schema.DefaultQuery()
	q.Filters = map[string]string{"project": "p2"}

	d := collection.Derive(tasks, schema, q)
	require.Equal(t, []string{"task-12"}, rowIDs(d.Rows))
}

func TestPayload_StatusOnly(t *testing.T) {
	require.True(t, task.StatusPayload(task.StatusCompleted).StatusOnly())
	require.False(t, task.Payload{Status: task.StatusCompleted, Title: "x"}.StatusOnly())
	require.False(t, task.Payload{}.StatusOnly())
}

func TestPayload_Validate(t *testing.T) {
	require.ErrorIs(t, task.Payload{Project: "p1"}.ValidateCreate(), record.ErrInvalidInput)
	require.ErrorIs(t, task.Payload{Title: "t", Project: "p1", Priority: "Urgent"}.ValidateCreate(), record.ErrInvalidInput)
	require.NoError(t, task.Payload{Title: "t", Project: "p1", Status: task.StatusInProgress}.ValidateCreate())
}
