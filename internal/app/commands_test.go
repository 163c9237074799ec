package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCommands_Tick(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.Tick(time.Millisecond) == nil {
		t.Error("Tick returned nil")
	}
}

func TestCommands_NilManager(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.LoadOverview() != nil {
		t.Error("LoadOverview without a manager should be nil")
	}
	if cmds.GenerateFeedback() != nil {
		t.Error("GenerateFeedback without a manager should be nil")
	}
	if cmds.RateFeedback(1, 5) != nil {
		t.Error("RateFeedback without a manager should be nil")
	}
}

func TestCommands_Notifications(t *testing.T) {
	cmds := NewCommands(nil)

	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
		dur  time.Duration
	}{
		{"Success", cmds.NotifySuccess, NotificationSuccess, DefaultNotificationDuration},
		{"Error", cmds.NotifyError, NotificationError, LongNotificationDuration},
		{"Warning", cmds.NotifyWarning, NotificationWarning, LongNotificationDuration},
		{"Info", cmds.NotifyInfo, NotificationInfo, QuickNotificationDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addMsg, ok := tt.fn("msg")().(AddNotificationMsg)
			if !ok {
				t.Fatal("expected AddNotificationMsg")
			}
			if addMsg.Type != tt.want || addMsg.Message != "msg" || addMsg.Duration != tt.dur {
				t.Errorf("got %+v", addMsg)
			}
		})
	}
}

func TestCommands_ClearNotification(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.ClearNotification("id", time.Millisecond) == nil {
		t.Error("ClearNotification returned nil")
	}
}

func TestCommands_Quit(t *testing.T) {
	cmds := NewCommands(nil)
	if _, ok := cmds.Quit()().(tea.QuitMsg); !ok {
		t.Error("Expected QuitMsg")
	}
}
