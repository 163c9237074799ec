package llm

import (
	"fmt"
	"strings"

	"github.com/j-veylop/omnicoach/internal/models"
)

// Personality ids.
const (
	PersonalityCoach     = "Coach"
	PersonalityPicard    = "Jean-Luc Picard"
	PersonalityTherapist = "Therapist"
)

var personalities = map[string]string{
	PersonalityCoach: "You are a supportive and motivating productivity coach. Be encouraging, direct, and focus on helping the user achieve their goals. Use motivational language and provide actionable advice. Keep responses concise and practical.",

	PersonalityPicard: `You are Captain Jean-Luc Picard from Star Trek: The Next Generation. Speak with wisdom, diplomacy, and occasionally reference your experiences as a starship captain. Use phrases like "Make it so" when appropriate. Be thoughtful and philosophical in your responses.`,

	PersonalityTherapist: "You are a calm, understanding, and empathetic therapist. Focus on emotional well-being, mindfulness, and mental health. Ask thoughtful questions and provide gentle guidance. Use therapeutic language and techniques.",
}

// Personalities lists the known personality ids.
func Personalities() []string {
	return []string{PersonalityCoach, PersonalityPicard, PersonalityTherapist}
}

// Personality returns the system prompt for id, falling back to the coach.
func Personality(id string) string {
	if p, ok := personalities[id]; ok {
		return p
	}
	for name, p := range personalities {
		if strings.EqualFold(name, id) {
			return p
		}
	}
	return personalities[PersonalityCoach]
}

// Context is the planner and activity state serialized into prompts.
type Context struct {
	RecentActivity string
	Tasks          []models.Task
	Goals          []models.Goal
	Habits         []models.Habit
}

// BuildPrompt joins the system prompt, the serialized context and the user request.
func BuildPrompt(system, userPrompt string, c Context) string {
	var sb strings.Builder

	sb.WriteString(system)
	sb.WriteString("\n\n")

	if len(c.Tasks) > 0 {
		sb.WriteString("Current tasks:\n")
		for _, t := range c.Tasks {
			fmt.Fprintf(&sb, "- %s (%s, priority: %s)\n", t.Title, t.Status, t.Priority)
		}
		sb.WriteString("\n")
	}

	if len(c.Goals) > 0 {
		sb.WriteString("Current goals:\n")
		for _, g := range c.Goals {
			fmt.Fprintf(&sb, "- %s: %.1f%% complete\n", g.Title, g.ProgressPercent())
		}
		sb.WriteString("\n")
	}

	if len(c.Habits) > 0 {
		sb.WriteString("Today's habits:\n")
		for _, h := range c.Habits {
			glyph := "○"
			if h.TodayCompleted {
				glyph = "✓"
			}
			fmt.Fprintf(&sb, "%s %s (%d day streak)\n", glyph, h.Name, h.Streak)
		}
		sb.WriteString("\n")
	}

	if c.RecentActivity != "" {
		fmt.Fprintf(&sb, "Recent activity:\n%s\n\n", c.RecentActivity)
	}

	sb.WriteString("User request: ")
	sb.WriteString(userPrompt)
	return sb.String()
}
