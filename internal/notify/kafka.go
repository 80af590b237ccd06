package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	eventOrderCreated  = "order.created"
	eventPaymentResult = "order.payment.result"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publishes notifications to a topic keyed by order id. The writer is async,
// so a slow or absent broker never holds up a request.
type KafkaSender struct {
	writer messageWriter
	log    *zap.Logger
}

func NewKafkaSender(brokers, topic string, log *zap.Logger) *KafkaSender {
	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("kafka delivery failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaSender{writer: w, log: log}
}

func (s *KafkaSender) OrderCreated(ctx context.Context, ev OrderCreated) error {
	return s.publish(ctx, eventOrderCreated, ev.OrderID, ev)
}

func (s *KafkaSender) PaymentResult(ctx context.Context, ev PaymentResult) error {
	return s.publish(ctx, eventPaymentResult, ev.OrderID, ev)
}

func (s *KafkaSender) publish(ctx context.Context, eventType, orderID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte("ORDER#" + orderID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	s.log.Debug("event published", zap.String("event_type", eventType), zap.String("order_id", orderID))
	return nil
}

func (s *KafkaSender) Close() error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}
