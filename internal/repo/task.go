package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mvolkov/tasktracker/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Assignee    string     `json:"assignee"`
	Labels      []string   `json:"labels"`
}

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Assignee    *string    `json:"assignee"`
	Labels      []string   `json:"labels"`
}

type TaskFilter struct {
	Status   string
	Priority string
}

type TaskStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByPriority map[string]int64 `json:"by_priority"`
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrValidation, maxTitleLen)
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return fmt.Errorf("%w: description cannot exceed %d characters", ErrValidation, maxDescriptionLen)
	}
	return nil
}

// CreateTask stores a task for ownerID. The owner always comes from the
// verified caller identity, never from the request body.
func (r *Repo) CreateTask(ctx context.Context, ownerID uint, in TaskInput) (*models.Task, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !models.ValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: status must be pending, in-progress or completed", ErrValidation)
	}
	if !models.ValidPriority(in.Priority) {
		return nil, fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	}

	task := models.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Assignee:    in.Assignee,
		Labels:      in.Labels,
	}

	if err := r.DB.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// GetTask reports a task owned by someone else as not found, so the
// existence of other users' tasks never leaks.
func (r *Repo) GetTask(ctx context.Context, id, ownerID uint) (*models.Task, error) {
	var task models.Task
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *Repo) ListTasks(ctx context.Context, ownerID uint, filter TaskFilter) ([]models.Task, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", ownerID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}

	var tasks []models.Task
	if err := q.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask applies a partial patch to an owned task. UpdatedAt is
// refreshed even when the patch is empty.
func (r *Repo) UpdateTask(ctx context.Context, id, ownerID uint, patch TaskPatch) (*models.Task, error) {
	var task models.Task
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		if patch.Title != nil {
			if err := validateTitle(*patch.Title); err != nil {
				return err
			}
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			if err := validateDescription(*patch.Description); err != nil {
				return err
			}
			task.Description = *patch.Description
		}
		if patch.Status != nil {
			if !models.ValidStatus(*patch.Status) {
				return fmt.Errorf("%w: status must be pending, in-progress or completed", ErrValidation)
			}
			task.Status = *patch.Status
		}
		if patch.Priority != nil {
			if !models.ValidPriority(*patch.Priority) {
				return fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
			}
			task.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			task.DueDate = patch.DueDate
		}
		if patch.Assignee != nil {
			task.Assignee = *patch.Assignee
		}
		if patch.Labels != nil {
			task.Labels = patch.Labels
		}

		task.UpdatedAt = time.Now().UTC()
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *Repo) DeleteTask(ctx context.Context, id, ownerID uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func deleteAllTasksForUser(db *gorm.DB, userID uint) error {
	return db.Where("user_id = ?", userID).Delete(&models.Task{}).Error
}

// DeleteAllTasksForUser is the cascade entry point; DeleteUser calls the
// unexported form inside its transaction.
func (r *Repo) DeleteAllTasksForUser(ctx context.Context, userID uint) error {
	return deleteAllTasksForUser(r.DB.WithContext(ctx), userID)
}

func (r *Repo) taskStats(db *gorm.DB, ownerID *uint) (*TaskStats, error) {
	stats := &TaskStats{
		ByStatus:   map[string]int64{},
		ByPriority: map[string]int64{},
	}

	scoped := func() *gorm.DB {
		q := db.Model(&models.Task{})
		if ownerID != nil {
			q = q.Where("user_id = ?", *ownerID)
		}
		return q
	}

	if err := scoped().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	if err := scoped().Select("status AS key, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byPriority []bucket
	if err := scoped().Select("priority AS key, COUNT(*) AS count").Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, err
	}
	for _, b := range byPriority {
		stats.ByPriority[b.Key] = b.Count
	}

	return stats, nil
}

func (r *Repo) TaskStatsForUser(ctx context.Context, ownerID uint) (*TaskStats, error) {
	return r.taskStats(r.DB.WithContext(ctx), &ownerID)
}

// GlobalTaskStats aggregates across all users; the admin read-only surface.
func (r *Repo) GlobalTaskStats(ctx context.Context) (*TaskStats, error) {
	return r.taskStats(r.DB.WithContext(ctx), nil)
}
