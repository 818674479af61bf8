package kafka

import (
	"fmt"

	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
)

// MockProducer logs instead of writing to Kafka. Used when KAFKA_MOCK_MODE is
// set, typically for local development without a broker.
type MockProducer struct {
	logger *logger.Logger
}

func NewMockProducer(log *logger.Logger) *MockProducer {
	return &MockProducer{logger: log}
}

func (m *MockProducer) PublishBookingConfirmed(booking models.Booking) error {
	m.logger.LogKafka("MOCK", "booking-confirmed", fmt.Sprintf("booking %s", booking.ID))
	return nil
}

func (m *MockProducer) PublishBookingFailed(booking models.Booking) error {
	m.logger.LogKafka("MOCK", "booking-failed", fmt.Sprintf("booking %s", booking.ID))
	return nil
}

func (m *MockProducer) PublishSeatsReleased(booking models.Booking) error {
	m.logger.LogKafka("MOCK", "booking-released", fmt.Sprintf("booking %s", booking.ID))
	return nil
}

func (m *MockProducer) PublishShowCreated(show models.Show) error {
	m.logger.LogKafka("MOCK", "show-created", fmt.Sprintf("show %s", show.ID))
	return nil
}

func (m *MockProducer) PublishShowDeleted(show models.Show) error {
	m.logger.LogKafka("MOCK", "show-deleted", fmt.Sprintf("show %s", show.ID))
	return nil
}

func (m *MockProducer) Close() {}
