package infrastructure

import (
	"fmt"
	"os/exec"

	"github.com/yourusername/vgm-archiver/internal/domain"
	"go.uber.org/zap"
)

// NotificationService announces run completion on the desktop. Long
// archive runs are usually left unattended, so a notification beats
// watching the log.
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{config: config, logger: logger}
}

// NotifyRunCompleted reports the run summary.
func (n *NotificationService) NotifyRunCompleted(stats *domain.RunStats) {
	message := fmt.Sprintf("%d succeeded, %d failed, %d skipped",
		stats.Succeeded, stats.Failed, stats.SkippedDone+stats.SkippedFailed)
	if err := n.send("Archive run finished", message); err != nil {
		n.logger.Debug("Notification failed", zap.Error(err))
	}
}

func (n *NotificationService) send(title, message string) error {
	if n == nil || !n.config.Enabled {
		return nil
	}

	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return exec.Command("osascript", "-e", script).Run()
	case "notify-send":
		return exec.Command("notify-send", title, message).Run()
	default:
		return fmt.Errorf("unknown notification method: %s", n.config.Method)
	}
}
