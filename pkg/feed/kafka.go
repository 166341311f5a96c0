package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topic carries every change event, keyed by table name.
const Topic = "hub-events"

// KafkaPublisher publishes committed row inserts to the feed topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Table),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// KafkaFeed consumes the feed topic. By default every subscription gets its
// own consumer group so each subscriber sees the full stream (fanout); a
// fixed group turns subscribers into a work-sharing pool where each event is
// handled once. The kafka-go reader handles reconnection internally.
type KafkaFeed struct {
	brokers []string
	groupID string
}

func NewKafkaFeed(brokers []string) *KafkaFeed {
	return &KafkaFeed{brokers: brokers}
}

func NewKafkaFeedWithGroup(brokers []string, groupID string) *KafkaFeed {
	return &KafkaFeed{brokers: brokers, groupID: groupID}
}

func (f *KafkaFeed) Subscribe(ctx context.Context, table string) (Subscription, error) {
	groupID := f.groupID
	if groupID == "" {
		groupID = fmt.Sprintf("feed-%s-%d", table, time.Now().UnixNano())
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     f.brokers,
		Topic:       Topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	sub := &kafkaSub{reader: reader, events: make(chan Event, 16)}
	go sub.pump(ctx, table)
	return sub, nil
}

type kafkaSub struct {
	reader *kafka.Reader
	events chan Event
}

func (s *kafkaSub) pump(ctx context.Context, table string) {
	defer close(s.events)
	for {
		m, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("feed: reader stopped: %v", err)
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Printf("feed: bad event payload: %v", err)
			continue
		}
		if ev.Table != table {
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *kafkaSub) Events() <-chan Event { return s.events }

func (s *kafkaSub) Close() error { return s.reader.Close() }
