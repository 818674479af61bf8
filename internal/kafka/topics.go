package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"

	"ms-showbooking/internal/config"
	"ms-showbooking/internal/logger"
)

// EnsureTopicsExist creates the service's topics if the broker doesn't have
// them yet. Creation failures are logged and skipped so that a broker with
// auto-create enabled still comes up cleanly.
func EnsureTopicsExist(cfg config.KafkaConfig, log *logger.Logger) error {
	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	topics := []string{
		cfg.Topics.BookingConfirmed,
		cfg.Topics.BookingFailed,
		cfg.Topics.BookingReleased,
		cfg.Topics.ShowCreated,
		cfg.Topics.ShowDeleted,
	}

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if err.Error() == "kafka server: topic already exists" {
				log.LogKafka("TOPIC", topic, "already exists")
				continue
			}
			log.Error("KAFKA", "create topic "+topic+": "+err.Error())
			continue
		}
		log.LogKafka("TOPIC", topic, "created")
	}

	// Give the broker a moment to propagate metadata.
	time.Sleep(1 * time.Second)
	return nil
}
