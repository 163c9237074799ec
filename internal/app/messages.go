package app

import (
	"time"

	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/services/feedback"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// OverviewLoadedMsg carries a fresh dashboard overview.
type OverviewLoadedMsg struct {
	Overview services.Overview
}

// GenerateFeedbackMsg requests manual feedback generation.
type GenerateFeedbackMsg struct{}

// FeedbackResultMsg carries the outcome of a manual generation.
type FeedbackResultMsg struct {
	Result feedback.Result
}

// RateFeedbackMsg requests rating an entry.
type RateFeedbackMsg struct {
	ID     int64
	Rating int
}

// FeedbackRatedMsg carries the outcome of a rating.
type FeedbackRatedMsg struct {
	Error  error
	ID     int64
	Rating int
}

// RefreshMsg requests a reload of the overview.
type RefreshMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// QuitMsg requests the application to quit.
type QuitMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
