package feedback

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services/llm"
)

const (
	// DefaultProductivity is used when activity statistics are unavailable.
	DefaultProductivity = 75.0

	maxContextTasks  = 5
	maxContextGoals  = 3
	maxContextHabits = 5
	topApps          = 3
	onTrackRatio     = 0.8
)

// Snapshot is the state a feedback prompt is built from.
type Snapshot struct {
	RecentActivity      string         `json:"recent_activity"`
	Tasks               []models.Task  `json:"tasks"`
	Goals               []models.Goal  `json:"goals"`
	Habits              []models.Habit `json:"habits"`
	CompletedTasks      int            `json:"completed_tasks"`
	PendingTasks        int            `json:"pending_tasks"`
	OpenTasks           int            `json:"open_tasks"`
	OverdueTasks        int            `json:"overdue_tasks"`
	GoalsOnTrack        int            `json:"goals_on_track"`
	HabitCompletionRate float64        `json:"habit_completion_rate"`
	ProductivityScore   float64        `json:"productivity_score"`
	ActiveHours         float64        `json:"active_hours"`
	MoodScore           float64        `json:"mood_score"`
}

// LLMContext returns the part of the snapshot serialized into the prompt body.
func (s Snapshot) LLMContext() llm.Context {
	return llm.Context{
		RecentActivity: s.RecentActivity,
		Tasks:          s.Tasks,
		Goals:          s.Goals,
		Habits:         s.Habits,
	}
}

// BuildContext derives the feedback snapshot. A nil stats means activity
// statistics could not be read.
func BuildContext(now time.Time, tasks []models.Task, goals []models.Goal, habits []models.Habit, stats *models.TodayStats) Snapshot {
	snap := Snapshot{
		Tasks:             head(tasks, maxContextTasks),
		Goals:             head(goals, maxContextGoals),
		Habits:            head(habits, maxContextHabits),
		ProductivityScore: DefaultProductivity,
		RecentActivity:    SummarizeActivity(stats),
	}

	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case models.TaskCompleted:
			snap.CompletedTasks++
		case models.TaskPending:
			snap.PendingTasks++
		}
		if t.Status != models.TaskCompleted {
			snap.OpenTasks++
		}
		if t.IsOverdue(now) {
			snap.OverdueTasks++
		}
	}

	if len(habits) > 0 {
		done := 0
		for _, h := range habits {
			if h.TodayCompleted {
				done++
			}
		}
		snap.HabitCompletionRate = float64(done) / float64(len(habits)) * 100
	}

	for i := range goals {
		if GoalOnTrack(&goals[i], now) {
			snap.GoalsOnTrack++
		}
	}

	if stats != nil {
		snap.ProductivityScore = stats.AvgProductivity
		snap.ActiveHours = stats.ActiveHours()
	}

	snap.MoodScore = EstimateMoodScore(snap.HabitCompletionRate, snap.ProductivityScore)
	return snap
}

// GoalOnTrack reports whether an active goal's progress is at least 80% of
// the share of time elapsed between its creation and its deadline. Goals
// without a deadline or a positive target are never on track.
func GoalOnTrack(g *models.Goal, now time.Time) bool {
	if g.Status != models.GoalActive || g.Deadline == nil || g.TargetValue <= 0 {
		return false
	}

	expected := 100.0
	total := g.Deadline.Sub(g.CreatedAt)
	if total > 0 {
		elapsed := now.Sub(g.CreatedAt)
		expected = math.Max(0, math.Min(100, float64(elapsed)/float64(total)*100))
	}
	return g.ProgressPercent() >= expected*onTrackRatio
}

// EstimateMoodScore combines habit completion and productivity (both 0-100)
// into a mood estimate clamped to [10, 100].
func EstimateMoodScore(habitRate, productivity float64) float64 {
	const base = 50.0
	habitBonus := habitRate / 100 * 25
	productivityBonus := (productivity - 50) / 50 * 25
	return math.Max(10, math.Min(100, base+habitBonus+productivityBonus))
}

// SummarizeActivity lists today's three most used applications.
func SummarizeActivity(stats *models.TodayStats) string {
	if stats == nil || stats.Apps == nil {
		return "No activity data available for today."
	}
	if len(stats.Apps) == 0 {
		return "No significant app usage detected today."
	}

	names := make([]string, 0, len(stats.Apps))
	for name := range stats.Apps {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := stats.Apps[names[i]].Time, stats.Apps[names[j]].Time
		if ti != tj {
			return ti > tj
		}
		return names[i] < names[j]
	})

	parts := make([]string, 0, topApps)
	for _, name := range head(names, topApps) {
		parts = append(parts, fmt.Sprintf("%s (%.1fh)", name, float64(stats.Apps[name].Time)/3600))
	}
	return "Top apps today: " + strings.Join(parts, ", ")
}

// BuildPrompt renders the feedback request for the gateway.
func BuildPrompt(trigger models.TriggerKind, tone string, s Snapshot) string {
	var sb strings.Builder

	sb.WriteString("Provide personalized feedback based on today's progress. ")
	switch trigger {
	case models.TriggerScheduled:
		sb.WriteString("This is a scheduled check-in. ")
	case models.TriggerManual:
		sb.WriteString("The user requested feedback. ")
	}

	fmt.Fprintf(&sb, "Use a %s tone. ", tone)
	sb.WriteString("Today's performance:\n")
	fmt.Fprintf(&sb, "- Completed %d tasks, %d pending", s.CompletedTasks, s.PendingTasks)
	if s.OverdueTasks > 0 {
		fmt.Fprintf(&sb, ", %d overdue", s.OverdueTasks)
	}
	fmt.Fprintf(&sb, "\n- Habit completion: %.0f%%\n", s.HabitCompletionRate)
	fmt.Fprintf(&sb, "- Productivity score: %.0f%%\n", s.ProductivityScore)
	fmt.Fprintf(&sb, "- Active time: %.1f hours\n", s.ActiveHours)
	if s.GoalsOnTrack > 0 {
		fmt.Fprintf(&sb, "- %d goals on track\n", s.GoalsOnTrack)
	}

	sb.WriteString("\nProvide specific, actionable feedback. Keep it concise (2-3 sentences). ")
	sb.WriteString("Focus on what's going well and one area for improvement. ")
	if trigger == models.TriggerScheduled {
		sb.WriteString("Include motivation for the rest of the day.")
	}
	return sb.String()
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
