package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// KafkaProducerConfig contains configuration for the Kafka delta producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "availability-events",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaPublisher publishes availability deltas to Kafka.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
}

// NewKafkaPublisher creates a new Kafka availability publisher
func NewKafkaPublisher(config *KafkaProducerConfig) (*KafkaPublisher, error) {
	if config == nil {
		config = DefaultKafkaProducerConfig()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps per-event ordering.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		config:   config,
	}, nil
}

// PublishDelta publishes a single availability delta to Kafka
func (p *KafkaPublisher) PublishDelta(ctx context.Context, delta *AvailabilityDelta) error {
	messageBytes, err := delta.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal delta: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.config.Topic,
		Key:       sarama.StringEncoder(delta.PartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Timestamp: delta.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("status"), Value: []byte(delta.Status)},
		},
	}

	if _, _, err := p.producer.SendMessage(message); err != nil {
		return fmt.Errorf("failed to publish availability delta: %w", err)
	}
	return nil
}

// Close shuts down the underlying producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
