package models

import "time"

// Task statuses used by the feedback context.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

// GoalActive is the status of a goal still being pursued.
const GoalActive = "active"

// Task is a to-do item.
type Task struct {
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category,omitempty"`
	ID          int64      `json:"id"`
}

// IsOverdue reports whether the task has a due date in the past and is not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// Goal is a measurable target with an optional deadline.
type Goal struct {
	CreatedAt    time.Time  `json:"created_at"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	Unit         string     `json:"unit,omitempty"`
	ID           int64      `json:"id"`
	TargetValue  float64    `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
}

// ProgressPercent returns current/target as a percentage; zero when there is no target.
func (g *Goal) ProgressPercent() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	return g.CurrentValue / g.TargetValue * 100
}

// Habit is an active habit together with its entry for today, if any.
type Habit struct {
	Name           string `json:"name"`
	Frequency      string `json:"frequency"`
	ID             int64  `json:"id"`
	Streak         int    `json:"streak"`
	BestStreak     int    `json:"best_streak"`
	TodayCount     int    `json:"today_count"`
	TodayCompleted bool   `json:"today_completed"`
}
