package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/models"
)

var (
	taskPriority string
	taskDue      string
	goalTarget   float64
	goalUnit     string
	habitCount   int
	habitUndone  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage the tasks, goals and habits included in coaching feedback",
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, goals and today's habits",
	Args:  cobra.NoArgs,
	RunE:  runPlanList,
}

var planTaskCmd = &cobra.Command{
	Use:   "task TITLE",
	Short: "Add a pending task",
	Example: `  omnicoach plan task "Write quarterly report" --priority high --due 2026-11-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlanTask,
}

var planGoalCmd = &cobra.Command{
	Use:   "goal TITLE",
	Short: "Add an active goal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlanGoal,
}

var planHabitCmd = &cobra.Command{
	Use:   "habit NAME",
	Short: "Add a daily habit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlanHabit,
}

var planDoneCmd = &cobra.Command{
	Use:   "done HABIT_ID",
	Short: "Mark a habit as done for today",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanDone,
}

func init() {
	planTaskCmd.Flags().StringVar(&taskPriority, "priority", "medium", "Priority (low, medium, high)")
	planTaskCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	planGoalCmd.Flags().Float64Var(&goalTarget, "target", 0, "Target value")
	planGoalCmd.Flags().StringVar(&goalUnit, "unit", "", "Unit of the target value")
	planDoneCmd.Flags().IntVar(&habitCount, "count", 1, "Number of repetitions today")
	planDoneCmd.Flags().BoolVar(&habitUndone, "undo", false, "Record the habit as not done")

	planCmd.AddCommand(planListCmd, planTaskCmd, planGoalCmd, planHabitCmd, planDoneCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanList(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	database := a.manager.Database()
	now := a.manager.Clock().Now()
	out := cmd.OutOrStdout()

	tasks, err := database.ListTasks(ctx)
	if err != nil {
		return err
	}
	cyan.Fprintln(out, "Tasks")
	for _, t := range tasks {
		line := fmt.Sprintf("  #%-4d %-12s %-7s %s", t.ID, t.Status, t.Priority, t.Title)
		if t.IsOverdue(now) {
			red.Fprintln(out, line+" (overdue)")
			continue
		}
		fmt.Fprintln(out, line)
	}

	goals, err := database.ListGoals(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	cyan.Fprintln(out, "Goals")
	for _, g := range goals {
		fmt.Fprintf(out, "  #%-4d %-40s %5.0f%%\n", g.ID, g.Title, g.ProgressPercent())
	}

	habits, err := database.HabitsForDay(ctx, now)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	cyan.Fprintln(out, "Habits today")
	for _, h := range habits {
		mark := faint.Sprint("[ ]")
		if h.TodayCompleted {
			mark = green.Sprint("[x]")
		}
		fmt.Fprintf(out, "  %s #%-4d %s (streak %d)\n", mark, h.ID, h.Name, h.Streak)
	}
	return nil
}

func runPlanTask(cmd *cobra.Command, args []string) error {
	task := &models.Task{
		Title:    strings.Join(args, " "),
		Status:   models.TaskPending,
		Priority: taskPriority,
	}
	if taskDue != "" {
		due, err := time.ParseInLocation("2006-01-02", taskDue, time.Local)
		if err != nil {
			return fmt.Errorf("invalid due date %q: %w", taskDue, err)
		}
		task.DueDate = &due
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.Database().CreateTask(context.Background(), task); err != nil {
		return err
	}
	green.Fprintf(cmd.OutOrStdout(), "Added task #%d\n", task.ID)
	return nil
}

func runPlanGoal(cmd *cobra.Command, args []string) error {
	goal := &models.Goal{
		Title:       strings.Join(args, " "),
		Status:      models.GoalActive,
		TargetValue: goalTarget,
		Unit:        goalUnit,
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.Database().CreateGoal(context.Background(), goal); err != nil {
		return err
	}
	green.Fprintf(cmd.OutOrStdout(), "Added goal #%d\n", goal.ID)
	return nil
}

func runPlanHabit(cmd *cobra.Command, args []string) error {
	habit := &models.Habit{Name: strings.Join(args, " ")}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.Database().CreateHabit(context.Background(), habit); err != nil {
		return err
	}
	green.Fprintf(cmd.OutOrStdout(), "Added habit #%d\n", habit.ID)
	return nil
}

func runPlanDone(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid habit id: %s", args[0])
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	today := a.manager.Clock().Now()
	if err := a.manager.Database().LogHabitEntry(context.Background(), id, today, !habitUndone, habitCount, ""); err != nil {
		return err
	}
	green.Fprintf(cmd.OutOrStdout(), "Logged habit #%d for %s\n", id, today.Format("2006-01-02"))
	return nil
}
