package executor

import (
	"log/slog"

	"github.com/abdul-hamid-achik/hitdesk/packages/logging"
)

// Controller cancels whatever execution currently occupies a Slot.
type Controller struct {
	slot   *Slot
	logger *slog.Logger
}

func NewController(slot *Slot, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{slot: slot, logger: logger}
}

// Cancel returns ErrNoActiveRequest when nothing is running. Otherwise the
// running Execute resolves to a cancelled result unless its outcome was
// already decided.
func (c *Controller) Cancel() error {
	if err := c.slot.CancelCurrent(); err != nil {
		c.logger.Debug("cancel requested with no active request")
		return err
	}
	c.logger.Info("active request cancelled")
	return nil
}
