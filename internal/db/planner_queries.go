package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/omnicoach/internal/models"
)

// ListTasks returns all tasks, newest first.
func (db *DB) ListTasks(ctx context.Context) ([]models.Task, error) {
	query := `
		SELECT id, title, description, status, priority, category, due_date, created_at
		FROM tasks
		ORDER BY created_at DESC, id DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var desc, category, due sql.NullString
		var created string

		if err := rows.Scan(&t.ID, &t.Title, &desc, &t.Status, &t.Priority, &category, &due, &created); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		t.Description = desc.String
		t.Category = category.String
		t.DueDate = nullTime(due)
		t.CreatedAt, _ = parseTimeString(created)
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// CreateTask inserts a task. Empty status and priority take the table defaults.
func (db *DB) CreateTask(ctx context.Context, t *models.Task) error {
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, status, priority, category, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.Title, nullString(t.Description), t.Status, t.Priority, nullString(t.Category),
		nullTimeArg(t.DueDate), formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		t.ID = id
	}
	return nil
}

// ListGoals returns all goals, newest first.
func (db *DB) ListGoals(ctx context.Context) ([]models.Goal, error) {
	query := `
		SELECT id, title, status, target_value, current_value, unit, deadline, created_at
		FROM goals
		ORDER BY created_at DESC, id DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		var unit, deadline sql.NullString
		var created string

		if err := rows.Scan(&g.ID, &g.Title, &g.Status, &g.TargetValue, &g.CurrentValue, &unit, &deadline, &created); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}

		g.Unit = unit.String
		g.Deadline = nullTime(deadline)
		g.CreatedAt, _ = parseTimeString(created)
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

// CreateGoal inserts a goal.
func (db *DB) CreateGoal(ctx context.Context, g *models.Goal) error {
	if g.Status == "" {
		g.Status = models.GoalActive
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO goals (title, status, target_value, current_value, unit, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.Title, g.Status, g.TargetValue, g.CurrentValue, nullString(g.Unit),
		nullTimeArg(g.Deadline), formatTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		g.ID = id
	}
	return nil
}

// HabitsForDay returns active habits joined with their entry for day, if any.
func (db *DB) HabitsForDay(ctx context.Context, day time.Time) ([]models.Habit, error) {
	query := `
		SELECT h.id, h.name, h.frequency, h.streak, h.best_streak,
			   COALESCE(e.completed, 0), COALESCE(e.count, 0)
		FROM habits h
		LEFT JOIN habit_entries e ON e.habit_id = h.id AND e.date = ?
		WHERE h.is_active = 1
		ORDER BY h.name ASC
	`

	rows, err := db.QueryContext(ctx, query, day.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var habits []models.Habit
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.Name, &h.Frequency, &h.Streak, &h.BestStreak, &h.TodayCompleted, &h.TodayCount); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}

	return habits, rows.Err()
}

// CreateHabit inserts an active habit.
func (db *DB) CreateHabit(ctx context.Context, h *models.Habit) error {
	if h.Frequency == "" {
		h.Frequency = "daily"
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO habits (name, frequency, streak, best_streak, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
	`, h.Name, h.Frequency, h.Streak, h.BestStreak, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		h.ID = id
	}
	return nil
}

// LogHabitEntry records the state of a habit for a day, replacing any earlier entry.
func (db *DB) LogHabitEntry(ctx context.Context, habitID int64, day time.Time, completed bool, count int, notes string) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO habit_entries (habit_id, date, completed, count, notes)
		VALUES (?, ?, ?, ?, ?)
	`, habitID, day.Format(dateLayout), completed, count, nullString(notes))
	if err != nil {
		return fmt.Errorf("failed to log habit entry: %w", err)
	}
	return nil
}
