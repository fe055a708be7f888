package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvolkov/tasktracker/internal/models"
)

func TestCreateTaskDefaults(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")

	task, err := r.CreateTask(ctx, owner.ID, TaskInput{Title: "X"})
	require.NoError(t, err)

	got, err := r.GetTask(ctx, task.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "X", got.Title)
	require.Equal(t, models.StatusPending, got.Status)
	require.Equal(t, models.PriorityMedium, got.Priority)
	require.False(t, got.CreatedAt.IsZero())
	require.WithinDuration(t, got.CreatedAt, got.UpdatedAt, time.Second)
}

func TestCreateTaskValidation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")

	_, err := r.CreateTask(ctx, owner.ID, TaskInput{})
	require.ErrorIs(t, err, ErrValidation)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = r.CreateTask(ctx, owner.ID, TaskInput{Title: string(long)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = r.CreateTask(ctx, owner.ID, TaskInput{Title: "X", Status: "done"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = r.CreateTask(ctx, owner.ID, TaskInput{Title: "X", Priority: "urgent"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestTaskOwnershipScoping(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	alice := createUser(t, r, "alice")
	bob := createUser(t, r, "bob")

	task, err := r.CreateTask(ctx, bob.ID, TaskInput{Title: "bobs"})
	require.NoError(t, err)

	// another user's task reads as not found, not forbidden
	_, err = r.GetTask(ctx, task.ID, alice.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	_, err = r.UpdateTask(ctx, task.ID, alice.ID, TaskPatch{})
	require.ErrorIs(t, err, ErrTaskNotFound)

	require.ErrorIs(t, r.DeleteTask(ctx, task.ID, alice.ID), ErrTaskNotFound)

	got, err := r.GetTask(ctx, task.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, bob.ID, got.UserID)
}

func TestUpdateTaskPartial(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")
	task, err := r.CreateTask(ctx, owner.ID, TaskInput{
		Title:       "X",
		Description: "desc",
		Priority:    models.PriorityHigh,
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	status := models.StatusCompleted
	updated, err := r.UpdateTask(ctx, task.ID, owner.ID, TaskPatch{Status: &status})
	require.NoError(t, err)

	require.Equal(t, models.StatusCompleted, updated.Status)
	require.Equal(t, "X", updated.Title)
	require.Equal(t, "desc", updated.Description)
	require.Equal(t, models.PriorityHigh, updated.Priority)
	require.True(t, updated.UpdatedAt.After(task.UpdatedAt))
}

func TestUpdateTaskValidation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")
	task, err := r.CreateTask(ctx, owner.ID, TaskInput{Title: "X"})
	require.NoError(t, err)

	empty := ""
	_, err = r.UpdateTask(ctx, task.ID, owner.ID, TaskPatch{Title: &empty})
	require.ErrorIs(t, err, ErrValidation)

	bad := "someday"
	_, err = r.UpdateTask(ctx, task.ID, owner.ID, TaskPatch{Status: &bad})
	require.ErrorIs(t, err, ErrValidation)
}

func TestListTasksFilters(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")

	mk := func(status, priority string) {
		_, err := r.CreateTask(ctx, owner.ID, TaskInput{Title: "t", Status: status, Priority: priority})
		require.NoError(t, err)
	}
	mk(models.StatusPending, models.PriorityHigh)
	mk(models.StatusPending, models.PriorityLow)
	mk(models.StatusCompleted, models.PriorityHigh)

	all, err := r.ListTasks(ctx, owner.ID, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	pending, err := r.ListTasks(ctx, owner.ID, TaskFilter{Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)

	both, err := r.ListTasks(ctx, owner.ID, TaskFilter{
		Status:   models.StatusPending,
		Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	require.Len(t, both, 1)
	require.Equal(t, models.PriorityHigh, both[0].Priority)
	require.Equal(t, models.StatusPending, both[0].Status)
}

func TestListTasksInsertionOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")
	for _, title := range []string{"first", "second", "third"} {
		_, err := r.CreateTask(ctx, owner.ID, TaskInput{Title: title})
		require.NoError(t, err)
	}

	tasks, err := r.ListTasks(ctx, owner.ID, TaskFilter{})
	require.NoError(t, err)
	require.Equal(t, "first", tasks[0].Title)
	require.Equal(t, "second", tasks[1].Title)
	require.Equal(t, "third", tasks[2].Title)
}

func TestDeleteTask(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")
	task, err := r.CreateTask(ctx, owner.ID, TaskInput{Title: "X"})
	require.NoError(t, err)

	require.NoError(t, r.DeleteTask(ctx, task.ID, owner.ID))
	require.ErrorIs(t, r.DeleteTask(ctx, task.ID, owner.ID), ErrTaskNotFound)
}

func TestDeleteAllTasksForUser(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	alice := createUser(t, r, "alice")
	bob := createUser(t, r, "bob")

	for i := 0; i < 2; i++ {
		_, err := r.CreateTask(ctx, alice.ID, TaskInput{Title: "a"})
		require.NoError(t, err)
	}
	_, err := r.CreateTask(ctx, bob.ID, TaskInput{Title: "b"})
	require.NoError(t, err)

	require.NoError(t, r.DeleteAllTasksForUser(ctx, alice.ID))

	aliceTasks, err := r.ListTasks(ctx, alice.ID, TaskFilter{})
	require.NoError(t, err)
	require.Empty(t, aliceTasks)

	bobTasks, err := r.ListTasks(ctx, bob.ID, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, bobTasks, 1)
}

func TestTaskStats(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	alice := createUser(t, r, "alice")
	bob := createUser(t, r, "bob")

	mk := func(owner uint, status, priority string) {
		_, err := r.CreateTask(ctx, owner, TaskInput{Title: "t", Status: status, Priority: priority})
		require.NoError(t, err)
	}
	mk(alice.ID, models.StatusPending, models.PriorityHigh)
	mk(alice.ID, models.StatusPending, models.PriorityMedium)
	mk(alice.ID, models.StatusCompleted, models.PriorityHigh)
	mk(bob.ID, models.StatusInProgress, models.PriorityLow)

	stats, err := r.TaskStatsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.Total)
	require.EqualValues(t, 2, stats.ByStatus[models.StatusPending])
	require.EqualValues(t, 1, stats.ByStatus[models.StatusCompleted])
	require.EqualValues(t, 2, stats.ByPriority[models.PriorityHigh])
	require.EqualValues(t, 1, stats.ByPriority[models.PriorityMedium])

	global, err := r.GlobalTaskStats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, global.Total)
	require.EqualValues(t, 1, global.ByStatus[models.StatusInProgress])
}

func TestTaskLabelsRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	owner := createUser(t, r, "alice")
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	task, err := r.CreateTask(ctx, owner.ID, TaskInput{
		Title:    "X",
		DueDate:  &due,
		Assignee: "bob",
		Labels:   []string{"home", "urgent"},
	})
	require.NoError(t, err)

	got, err := r.GetTask(ctx, task.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"home", "urgent"}, got.Labels)
	require.Equal(t, "bob", got.Assignee)
	require.NotNil(t, got.DueDate)
	require.True(t, got.DueDate.Equal(due))
}
