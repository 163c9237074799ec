// Package models defines data structures and domain types.
package models

import "time"

// Category classifies an application by the kind of work it supports.
type Category string

const (
	CategoryDevelopment   Category = "development"
	CategoryBrowsing      Category = "browsing"
	CategoryCommunication Category = "communication"
	CategoryDocumentation Category = "documentation"
	CategoryEntertainment Category = "entertainment"
	CategoryOther         Category = "other"
)

// ActivitySample is one closed focus session of a single application.
type ActivitySample struct {
	Timestamp    time.Time `json:"timestamp"`
	AppName      string    `json:"app_name"`
	WindowTitle  string    `json:"window_title,omitempty"`
	Category     Category  `json:"category"`
	ID           int64     `json:"id"`
	Duration     int64     `json:"duration"`
	Productivity float64   `json:"productivity"`
}

// AppStats aggregates the samples of one application.
type AppStats struct {
	Time         int64   `json:"time"`
	Sessions     int     `json:"sessions"`
	Productivity float64 `json:"productivity"`
}

// CategoryStats aggregates the samples of one category.
type CategoryStats struct {
	Time         int64   `json:"time"`
	Productivity float64 `json:"productivity"`
}

// TodayStats summarises the activity samples recorded today.
type TodayStats struct {
	Apps            map[string]AppStats        `json:"app_breakdown"`
	Categories      map[Category]CategoryStats `json:"category_breakdown"`
	TotalTime       int64                      `json:"total_time"`
	AvgProductivity float64                    `json:"avg_productivity"`
	Sessions        int                        `json:"sessions"`
}

// ActiveHours returns the total tracked time in hours.
func (s *TodayStats) ActiveHours() float64 {
	if s == nil {
		return 0
	}
	return float64(s.TotalTime) / 3600
}

// AppUsage is a per-application total over a multi-day window.
type AppUsage struct {
	AppName         string  `json:"app_name"`
	TotalDuration   int64   `json:"total_duration"`
	AvgProductivity float64 `json:"avg_productivity"`
}
