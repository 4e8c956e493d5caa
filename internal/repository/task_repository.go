package repository

import (
	"context"
	"fmt"

	"github.com/direct-system/labdesk-api/internal/models"
)

const taskColumns = `id::text AS id, title, assigned_to, deadline, status`

// TaskRepository manages persistence for administrative tasks.
type TaskRepository struct {
	gw *Gateway
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(gw *Gateway) *TaskRepository {
	return &TaskRepository{gw: gw}
}

// List returns all tasks ordered by deadline ascending.
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks ORDER BY deadline ASC", taskColumns)
	tasks := make([]models.Task, 0)
	if err := r.gw.Select(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Create inserts a new task and fills in the assigned identifier.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := fmt.Sprintf(`INSERT INTO tasks (title, assigned_to, deadline, status)
		VALUES ($1, $2, $3, $4) RETURNING %s`, taskColumns)
	if err := r.gw.Get(ctx, task, query, task.Title, task.AssignedTo, task.Deadline, task.Status); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateStatus persists a status change and returns the authoritative row.
// sql.ErrNoRows surfaces when the task no longer exists.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Task, error) {
	query := fmt.Sprintf(`UPDATE tasks SET status = $2 WHERE id::text = $1 RETURNING %s`, taskColumns)
	var task models.Task
	if err := r.gw.Get(ctx, &task, query, id, status); err != nil {
		return nil, err
	}
	return &task, nil
}
