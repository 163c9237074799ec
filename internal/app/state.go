// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// Loading resources.
const (
	ResourceInitial  = "initial"
	ResourceOverview = "overview"
	ResourceFeedback = "feedback"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial  bool
	Overview bool
	Feedback bool
}

// State is the data shared by every tab.
type State struct {
	mu sync.RWMutex

	overview    services.Overview
	hasOverview bool
	lastUpdated time.Time

	// Loading is read by views without the lock; writers go through SetLoading.
	Loading LoadingState

	notifications   []Notification
	notificationSeq int
}

// NewState returns a state that is still waiting for its first load.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading:       LoadingState{Initial: true},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceOverview:
		s.Loading.Overview = loading
	case ResourceFeedback:
		s.Loading.Feedback = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial || s.Loading.Overview || s.Loading.Feedback
}

// IsInitialLoading returns true until the first overview arrives.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// IsGenerating reports whether a manual feedback request is in flight.
func (s *State) IsGenerating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Feedback
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, ResourceInitial)
	}
	if s.Loading.Overview {
		resources = append(resources, ResourceOverview)
	}
	if s.Loading.Feedback {
		resources = append(resources, ResourceFeedback)
	}
	return resources
}

// SetOverview replaces the dashboard data and ends the initial load.
func (s *State) SetOverview(ov services.Overview) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overview = ov
	s.hasOverview = true
	s.lastUpdated = time.Now()
	s.Loading.Initial = false
	s.Loading.Overview = false
}

// GetOverview returns the latest overview and whether one was loaded.
func (s *State) GetOverview() (services.Overview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overview, s.hasOverview
}

// SetBudget updates only the budget part of the overview.
func (s *State) SetBudget(snap models.BudgetSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overview.Budget = snap
}

// PrependFeedback adds a new entry to the top of the recent feedback list.
func (s *State) PrependFeedback(entry models.FeedbackEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.overview.Recent {
		if e.ID == entry.ID {
			return
		}
	}
	s.overview.Recent = append([]models.FeedbackEntry{entry}, s.overview.Recent...)
}

// SetRating records a rating on a cached entry.
func (s *State) SetRating(id int64, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.overview.Recent {
		if s.overview.Recent[i].ID == id {
			r := rating
			s.overview.Recent[i].Rating = &r
			return
		}
	}
}

// RecentFeedback returns a copy of the cached feedback entries.
func (s *State) RecentFeedback() []models.FeedbackEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FeedbackEntry(nil), s.overview.Recent...)
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(list []Notification) []Notification {
	active := make([]Notification, 0, len(list))
	for _, n := range list {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the last time the overview was loaded.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.lastUpdated)
}
