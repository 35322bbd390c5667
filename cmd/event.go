package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bert0h-dev/busmanage-api/internal/core/events"
	"github.com/bert0h-dev/busmanage-api/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test events, monitor event bus, inspect handlers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var eventData string

// registerEventSubscribers attaches the audit-log subscribers. Every auth
// and permission lifecycle event lands in the structured log.
func registerEventSubscribers(bus *events.EventBus, logger *slog.Logger) {
	auditTypes := []string{
		events.EventTypeUserRegistered,
		events.EventTypeUserLoggedIn,
		events.EventTypeUserLoggedOut,
		events.EventTypePermissionAssigned,
		events.EventTypePermissionRemoved,
	}

	for _, eventType := range auditTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			logger.Info("audit event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}

	// Reset tokens are delivered out of band; the subscriber is the hook
	// where a mailer would go. The token itself stays out of the logs.
	bus.Subscribe(events.EventTypePasswordResetRequested, func(ctx context.Context, event events.Event) error {
		logger.Info("password reset requested",
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt())
		return nil
	})
}

func publishTestEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	testEvent := events.BaseEvent{
		ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	logger.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	ctx := context.Background()
	if err := eventBus.Publish(ctx, testEvent); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	time.Sleep(100 * time.Millisecond)
	logger.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
