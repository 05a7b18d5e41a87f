package notify

import (
	"context"

	"github.com/hoopsignal/hoopsignal/internal/logger"
	"github.com/hoopsignal/hoopsignal/internal/metrics"
	"github.com/hoopsignal/hoopsignal/internal/slots"
)

// Dispatcher fans one message out to every destination of a slot: all of
// the slot's webhooks, plus the optional Telegram broadcast channel. Each
// destination is independent; one failure never blocks the rest.
type Dispatcher struct {
	webhooks *WebhookClient
	telegram *TelegramClient
}

// NewDispatcher creates a dispatcher. telegram may be nil when the
// broadcast channel is disabled.
func NewDispatcher(webhooks *WebhookClient, telegram *TelegramClient) *Dispatcher {
	return &Dispatcher{webhooks: webhooks, telegram: telegram}
}

// Send delivers the message to all of the slot's destinations.
func (d *Dispatcher) Send(ctx context.Context, slot slots.Slot, message string) {
	for _, url := range slot.Webhooks {
		if err := d.webhooks.Post(ctx, url, message); err != nil {
			metrics.NotificationFailures.Inc()
			logger.Error("webhook delivery failed for slot %s: %v", slot.Name, err)
			continue
		}
		metrics.NotificationsSent.Inc()
		logger.Debug("alert sent to slot %s", slot.Name)
	}

	if d.telegram != nil {
		if err := d.telegram.Send(message); err != nil {
			metrics.NotificationFailures.Inc()
			logger.Error("telegram delivery failed for slot %s: %v", slot.Name, err)
		} else {
			metrics.NotificationsSent.Inc()
		}
	}
}
