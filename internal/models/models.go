package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Task struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint       `gorm:"index;not null"           json:"user_id"`
	Title       string     `gorm:"not null"                 json:"title"`
	Description string     `json:"description"`
	Status      string     `gorm:"not null;default:pending" json:"status"`
	Priority    string     `gorm:"not null;default:medium"  json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	Labels      []string   `gorm:"serializer:json"          json:"labels,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}
