package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LudiSistemas/HA/internal/modules/weather/service"
	"github.com/LudiSistemas/HA/internal/modules/weather/types"
	"github.com/LudiSistemas/HA/internal/mqtt"
)

// registerMQTTHandler sets up the weather module's MQTT message handler
func registerMQTTHandler(subscriber mqtt.MQTTSubscriber, svc *service.Service, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(ctx context.Context, msg types.StateMessage) error {
		logger.Debug("processing state message",
			"entity_id", msg.EntityID,
			"last_updated", msg.LastUpdated,
		)

		err := svc.Ingest(ctx, msg)
		if errors.Is(err, service.ErrUntrackedSensor) {
			return fmt.Errorf("%w: %v", mqtt.ErrSkipped, err)
		}
		if err != nil {
			logger.Error("failed to store state",
				"entity_id", msg.EntityID,
				"error", err,
			)
			return err
		}
		return nil
	})
}
