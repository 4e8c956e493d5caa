package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type mockTaskRepo struct {
	items   map[string]models.Task
	updates []string
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{items: make(map[string]models.Task)}
}

func (m *mockTaskRepo) List(ctx context.Context) ([]models.Task, error) {
	out := make([]models.Task, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	task.ID = "generated"
	m.items[task.ID] = *task
	return nil
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id, status string) (*models.Task, error) {
	task, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	task.Status = status
	m.items[id] = task
	m.updates = append(m.updates, id+":"+status)
	return &task, nil
}

func TestTaskServiceCreateDefaultsPending(t *testing.T) {
	repo := newMockTaskRepo()
	svc := NewTaskService(repo, nil, nil)

	task, err := svc.Create(context.Background(), CreateTaskRequest{
		Title:      "  Submit Form 137 ",
		AssignedTo: "Registrar",
		Deadline:   time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Submit Form 137", task.Title)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, "generated", task.ID)
}

func TestTaskServiceCreateMissingDeadline(t *testing.T) {
	repo := newMockTaskRepo()
	svc := NewTaskService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateTaskRequest{
		Title:      "Submit Form 137",
		AssignedTo: "Registrar",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.items)
}

func TestTaskServiceSetStatus(t *testing.T) {
	repo := newMockTaskRepo()
	repo.items["k1"] = models.Task{ID: "k1", Status: models.TaskStatusPending}
	svc := NewTaskService(repo, nil, nil)

	task, err := svc.SetStatus(context.Background(), "k1", models.TaskStatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, task.Status)
	assert.Equal(t, []string{"k1:Done"}, repo.updates)
}

func TestTaskServiceSetStatusRejectsUnknownValue(t *testing.T) {
	repo := newMockTaskRepo()
	svc := NewTaskService(repo, nil, nil)

	_, err := svc.SetStatus(context.Background(), "k1", "Archived")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.updates)
}

func TestTaskServiceSetStatusNotFound(t *testing.T) {
	repo := newMockTaskRepo()
	svc := NewTaskService(repo, nil, nil)

	_, err := svc.SetStatus(context.Background(), "missing", models.TaskStatusDone)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
