package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-showbooking/internal/config"
	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
)

// Producer streams booking and show lifecycle events, one writer per topic.
type Producer struct {
	writers map[string]*kafka.Writer
	topics  config.TopicConfig
	logger  *logger.Logger
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	topics := []string{
		cfg.Topics.BookingConfirmed,
		cfg.Topics.BookingFailed,
		cfg.Topics.BookingReleased,
		cfg.Topics.ShowCreated,
		cfg.Topics.ShowDeleted,
	}

	writers := make(map[string]*kafka.Writer, len(topics))
	for _, topic := range topics {
		writers[topic] = kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   topic,
		})
	}

	return &Producer{writers: writers, topics: cfg.Topics, logger: log}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	writer, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer for topic %s", topic)
	}

	p.logger.LogKafka("PUBLISH", topic, string(msgBytes))

	return writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// PublishBookingConfirmed streams a booking that committed.
func (p *Producer) PublishBookingConfirmed(booking models.Booking) error {
	return p.publish(p.topics.BookingConfirmed, booking.ID, booking)
}

// PublishBookingFailed streams the audit record of a reservation that rolled back.
func (p *Producer) PublishBookingFailed(booking models.Booking) error {
	return p.publish(p.topics.BookingFailed, booking.ID, booking)
}

// PublishSeatsReleased streams a booking after seats were given back.
func (p *Producer) PublishSeatsReleased(booking models.Booking) error {
	return p.publish(p.topics.BookingReleased, booking.ID, booking)
}

// PublishShowCreated streams a newly listed show.
func (p *Producer) PublishShowCreated(show models.Show) error {
	return p.publish(p.topics.ShowCreated, show.ID, show)
}

// PublishShowDeleted streams a show removal, after its bookings cascaded away.
func (p *Producer) PublishShowDeleted(show models.Show) error {
	return p.publish(p.topics.ShowDeleted, show.ID, show)
}

func (p *Producer) Close() {
	for _, w := range p.writers {
		w.Close()
	}
}
