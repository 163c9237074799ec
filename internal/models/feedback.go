package models

import "time"

// TriggerKind says why a feedback entry was generated.
type TriggerKind string

const (
	TriggerScheduled TriggerKind = "scheduled"
	TriggerManual    TriggerKind = "manual"
)

// FeedbackEntry is a piece of generated coaching feedback.
type FeedbackEntry struct {
	Timestamp         time.Time   `json:"timestamp"`
	Rating            *int        `json:"user_rating,omitempty"`
	Trigger           TriggerKind `json:"type"`
	Content           string      `json:"content"`
	ID                int64       `json:"id"`
	MoodScore         float64     `json:"mood_score"`
	ProductivityScore float64     `json:"productivity_score"`
}
