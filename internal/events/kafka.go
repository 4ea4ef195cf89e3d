package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher lazily manages one writer per topic. Events go to
// <prefix><aggregate>, where the aggregate is the part of the type before the dot.
type KafkaPublisher struct {
	brokers     []string
	topicPrefix string
	mu          sync.Mutex
	writers     map[string]*kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers:     brokers,
		topicPrefix: topicPrefix,
		writers:     make(map[string]*kafka.Writer),
	}
}

// Topic returns the topic an event type is written to.
func (p *KafkaPublisher) Topic(eventType string) string {
	aggregate, _, _ := strings.Cut(eventType, ".")
	return p.topicPrefix + aggregate
}

// Publish writes the event keyed by subject so one person's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := message(event)
	if err != nil {
		return err
	}
	return p.writerForTopic(p.Topic(event.Type)).WriteMessages(ctx, msg)
}

func message(event Event) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.SubjectID), 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}, nil
}

func (p *KafkaPublisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
