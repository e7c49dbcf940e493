package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"liscraper/pkg/models"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender uses notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender uses osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender uses a PowerShell toast
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("liscraper").Show($toast)
	`, title, message)
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier sends desktop notifications when a run ends. A nil sender
// disables them.
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. Disabled
// notifiers never send.
func NewNotifier(enabled bool) *Notifier {
	if !enabled {
		return &Notifier{}
	}
	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: &LinuxNotificationSender{}}
	case "darwin":
		return &Notifier{sender: &MacOSNotificationSender{}}
	case "windows":
		return &Notifier{sender: &WindowsNotificationSender{}}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender is used when the platform sender is not wanted
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// SessionFinished summarizes a finished run. Delivery errors are ignored.
func (n *Notifier) SessionFinished(s models.ScrapeSession, err error) {
	if n.sender == nil {
		return
	}
	title, message := sessionSummary(s, err)
	_ = n.sender.Send(title, message)
}

func sessionSummary(s models.ScrapeSession, err error) (string, string) {
	name := s.ProfileLabel
	if name == "" {
		name = s.ProfileURL
	}
	switch {
	case err != nil:
		return "LinkedIn extraction failed", fmt.Sprintf("%s: stopped after %d posts", name, s.Offset)
	case s.Terminal() == models.StateStalled:
		return "LinkedIn extraction stalled", fmt.Sprintf("%s: %d of %d posts", name, s.Offset, s.RequestedTotal)
	default:
		return "LinkedIn extraction complete", fmt.Sprintf("%s: %d posts", name, s.Offset)
	}
}
