package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/studio-pulse/internal/automation"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

// Publisher delivers an encoded notification to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher publishes over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a Redis pub/sub publisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	if client == nil {
		panic("notify: redis client required")
	}
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// Channel is the pub/sub channel carrying one provider's rule notifications.
func Channel(providerID string) string {
	if providerID == "" {
		providerID = "default"
	}
	return fmt.Sprintf("studio-pulse:notifications:%s", providerID)
}

// Service forwards rule notifications to subscribers of a channel. Delivery
// failures are logged and never block the automation tick.
type Service struct {
	pub     Publisher
	channel string
	logger  *logging.Logger
}

// NewService creates a notification service.
func NewService(pub Publisher, channel string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{pub: pub, channel: channel, logger: logger}
}

var _ automation.Notifier = (*Service)(nil)

// Notify publishes n as JSON.
func (s *Service) Notify(ctx context.Context, n automation.Notification) {
	s.logger.Info("notify: rule notification", "rule_id", n.RuleID, "message", n.Message)
	if s.pub == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("notify: encode notification", "error", err, "rule_id", n.RuleID)
		return
	}
	if err := s.pub.Publish(ctx, s.channel, payload); err != nil {
		s.logger.Error("notify: publish failed", "error", err, "channel", s.channel, "rule_id", n.RuleID)
	}
}
