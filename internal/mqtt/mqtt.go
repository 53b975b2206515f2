package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LudiSistemas/HA/internal/config"
	"github.com/LudiSistemas/HA/internal/metrics"
	"github.com/LudiSistemas/HA/internal/modules/weather/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

var (
	ErrStopped = errors.New("subscriber stopped")
	// ErrSkipped is returned by a handler that deliberately drops a
	// message, e.g. one from an entity it does not track.
	ErrSkipped = errors.New("message skipped")
)

// MessageHandler stores one validated state message.
type MessageHandler func(ctx context.Context, msg types.StateMessage) error

// MQTTSubscriber is implemented by anything a feature can attach its
// handler to.
type MQTTSubscriber interface {
	SetMessageHandler(handler MessageHandler)
}

type Subscriber struct {
	client  mqtt.Client
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu         sync.RWMutex
	connected  bool
	subscribed bool
	handler    MessageHandler

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSubscriber builds a subscriber for cfg.MQTTTopic. The client id gets a
// random suffix so several server instances can share a broker.
func NewSubscriber(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) *Subscriber {
	s := &Subscriber{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	clientID := fmt.Sprintf("%s-%s", cfg.MQTTClientID, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort, "client_id", clientID)

		// A clean session loses its subscriptions on reconnect.
		s.mu.RLock()
		resubscribe := s.subscribed
		s.mu.RUnlock()
		if resubscribe {
			go func() {
				if err := s.subscribe(); err != nil {
					logger.Error("mqtt resubscribe failed", "topic", cfg.MQTTTopic, "error", err)
				}
			}()
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

func (s *Subscriber) SetMessageHandler(handler MessageHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// Connect connects to the broker and subscribes to the configured topic.
// It returns early when ctx is cancelled or Disconnect is called.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return ErrStopped
	default:
	}

	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return ErrStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// ConnectWithRetry keeps calling Connect with exponential backoff until it
// succeeds or ctx ends. The server keeps serving HTTP while the broker is
// down.
func (s *Subscriber) ConnectWithRetry(ctx context.Context, initial, max time.Duration) error {
	delay := initial
	for {
		err := s.Connect(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrStopped) {
			return err
		}
		s.logger.Warn("mqtt connect failed, retrying", "error", err, "retry_in", delay.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return ErrStopped
		case <-time.After(delay):
		}
		delay *= 2
		if delay > max {
			delay = max
		}
	}
}

func (s *Subscriber) subscribe() error {
	topic := s.cfg.MQTTTopic
	qos := byte(1)

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.mu.Lock()
	s.subscribed = true
	s.mu.Unlock()

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	msg, err := s.decode(topic, payload)
	if err != nil {
		s.metrics.MQTTMessage("invalid")
		s.logger.Warn("failed to parse state message", "topic", topic, "error", err, "payload", string(payload))
		return
	}
	if err := msg.Validate(); err != nil {
		s.metrics.MQTTMessage("invalid")
		s.logger.Warn("invalid state message", "topic", topic, "entity_id", msg.EntityID, "error", err)
		return
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := handler(ctx, msg); err != nil {
		if errors.Is(err, ErrSkipped) {
			s.metrics.MQTTMessage("skipped")
			s.logger.Debug("skipped state message", "entity_id", msg.EntityID, "reason", err)
			return
		}
		s.metrics.MQTTMessage("failed")
		s.logger.Error("message handler failed", "topic", topic, "entity_id", msg.EntityID, "error", err)
		return
	}
	s.metrics.MQTTMessage("stored")
	s.logger.Debug("processed state message", "entity_id", msg.EntityID, "state", msg.State)
}

// decode accepts either a JSON state object or, as published by Home
// Assistant's statestream, the bare state string. Missing entity ids are
// taken from the topic and missing timestamps from the receive time.
func (s *Subscriber) decode(topic string, payload []byte) (types.StateMessage, error) {
	var msg types.StateMessage

	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(payload, &msg); err != nil {
			return types.StateMessage{}, err
		}
	} else {
		msg.State = trimmed
	}

	if msg.EntityID == "" {
		msg.EntityID = EntityFromTopic(topic)
	}
	if msg.LastUpdated.IsZero() {
		msg.LastUpdated = s.now().UTC()
	}
	return msg, nil
}

// EntityFromTopic maps "<prefix>/<domain>/<object_id>/state" to
// "<domain>.<object_id>". It returns "" for topics of any other shape.
func EntityFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-1] != "state" {
		return ""
	}
	domain, object := parts[len(parts)-3], parts[len(parts)-2]
	if domain == "" || object == "" {
		return ""
	}
	return domain + "." + object
}

// IsConnected reports whether the client is connected and the topic
// subscription has been established.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	ready := s.connected && s.subscribed
	s.mu.RUnlock()
	return ready && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the connection. It is safe to
// call more than once.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
