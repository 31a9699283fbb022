package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/lifeos/core/internal/infrastructure/logger"
)

// DesktopSender delivers notifications through the platform notification
// daemon. The tag has no equivalent off the browser; same-day collapse is
// already guaranteed by the dedup log.
type DesktopSender struct {
	logger *logger.Logger
}

// NewDesktopSender creates a desktop sender.
func NewDesktopSender(log *logger.Logger) *DesktopSender {
	return &DesktopSender{logger: log.WithComponent("sender")}
}

// Send delivers one notification.
func (s *DesktopSender) Send(title, body, tag string) error {
	s.logger.Debugw("Delivering notification", "tag", tag)
	return beeep.Notify(title, body, "")
}
