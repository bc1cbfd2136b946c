package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer implements Consumer using segmentio/kafka-go. The backend
// publishes one JSON Notification per settled reply, keyed by chat id.
type KafkaConsumer struct {
	brokers       string
	consumerGroup string
	topic         string
	reader        *kafka.Reader
	notifications chan Notification
}

// NewKafkaConsumer creates a Kafka notification consumer.
func NewKafkaConsumer(brokers, consumerGroup, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		brokers:       brokers,
		consumerGroup: consumerGroup,
		topic:         topic,
		notifications: make(chan Notification, 100),
	}
}

// Start implements Consumer.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(c.brokers, ","),
		Topic:    c.topic,
		GroupID:  c.consumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	go func() {
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("KafkaConsumer: read error", "topic", c.topic, "error", err)
				continue
			}

			var n Notification
			if err := json.Unmarshal(msg.Value, &n); err != nil {
				slog.Warn("KafkaConsumer: unmarshal notification", "topic", c.topic, "error", err)
				continue
			}
			if n.ChatID == "" && len(msg.Key) > 0 {
				n.ChatID = string(msg.Key)
			}
			c.notifications <- n
		}
	}()

	return nil
}

// Notifications implements Consumer.
func (c *KafkaConsumer) Notifications() <-chan Notification {
	return c.notifications
}

// Close implements Consumer.
func (c *KafkaConsumer) Close() error {
	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	close(c.notifications)
	return err
}

// ChannelConsumer is an in-process Consumer implementation backed by a Go
// channel, for tests and single-binary deployments.
type ChannelConsumer struct {
	ch chan Notification
}

// NewChannelConsumer creates an in-process consumer.
func NewChannelConsumer() *ChannelConsumer {
	return &ChannelConsumer{
		ch: make(chan Notification, 100),
	}
}

// Start is a no-op for the channel consumer.
func (c *ChannelConsumer) Start(ctx context.Context) error { return nil }

// Notifications returns the notification channel.
func (c *ChannelConsumer) Notifications() <-chan Notification { return c.ch }

// Close closes the channel.
func (c *ChannelConsumer) Close() error {
	close(c.ch)
	return nil
}

// Send pushes a notification into the channel consumer.
func (c *ChannelConsumer) Send(n Notification) {
	c.ch <- n
}
