package source

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"ocpp-monitor/config"
	"ocpp-monitor/models"

	"github.com/Shopify/sarama"
)

// KafkaSource consumes OCPP log lines from a topic and serves the most
// recent ones as a batch.
type KafkaSource struct {
	config config.KafkaConfig
	group  sarama.ConsumerGroup
	window *RecordWindow
}

func NewKafkaSource(cfg config.KafkaConfig, capacity int) (*KafkaSource, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	saramaConfig.Consumer.MaxWaitTime = 250 * time.Millisecond

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}
	return &KafkaSource{
		config: cfg,
		group:  group,
		window: NewRecordWindow(capacity),
	}, nil
}

// Run consumes until ctx is cancelled.
func (k *KafkaSource) Run(ctx context.Context) error {
	go func() {
		for err := range k.group.Errors() {
			slog.Warn("kafka consumer error", "topic", k.config.Topic, "error", err)
		}
	}()

	handler := &windowHandler{window: k.window}
	for {
		if err := k.group.Consume(ctx, []string{k.config.Topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (k *KafkaSource) FetchLogs(_ context.Context, limit int) ([]models.LogRecord, error) {
	return k.window.Latest(limit), nil
}

func (k *KafkaSource) Close() error {
	return k.group.Close()
}

// DecodeMessage accepts either a JSON {LOGS, CREATEDON} object or a bare log
// line. Bare lines, and objects without a timestamp, take the broker timestamp.
func DecodeMessage(value []byte, ts time.Time) models.LogRecord {
	var r models.LogRecord
	if err := json.Unmarshal(value, &r); err != nil || r.Text == "" {
		r = models.LogRecord{Text: string(value)}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = ts
	}
	return r
}

// windowHandler implements sarama.ConsumerGroupHandler.
type windowHandler struct {
	window *RecordWindow
}

func (h *windowHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *windowHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *windowHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.window.Add(DecodeMessage(message.Value, message.Timestamp))
		session.MarkMessage(message, "")
	}
	return nil
}
